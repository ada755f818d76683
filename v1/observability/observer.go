package observability

import "time"

// OperationContext describes one completed operation against a backing system.
type OperationContext struct {
	// Component names the emitting package, e.g. "milvus".
	Component string

	// Operation is the logical operation, e.g. "search" or "upsert".
	Operation string

	// Resource is the primary target, e.g. a collection name.
	Resource string

	// SubResource narrows the target, e.g. a partition name.
	SubResource string

	// Duration is the wall time of the operation.
	Duration time.Duration

	// Error is the error returned to the caller, nil on success.
	Error error

	// Size is an operation specific count (rows written, hits returned, ...).
	Size int64

	// Metadata holds additional low-cardinality attributes.
	Metadata map[string]interface{}
}

// Observer receives operation events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// MultiObserver fans each event out to every non-nil observer in order.
type MultiObserver []Observer

// ObserveOperation forwards ctx to all observers.
func (m MultiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		if o != nil {
			o.ObserveOperation(ctx)
		}
	}
}
