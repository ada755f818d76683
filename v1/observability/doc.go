// Package observability defines the hook through which std clients report
// the operations they perform.
//
// Clients accept an optional Observer (see milvus.WithObserver) and emit one
// OperationContext per call. The metrics package ships a Prometheus backed
// implementation; tests usually record events with an ObserverFunc:
//
//	var events []observability.OperationContext
//	obs := observability.ObserverFunc(func(op observability.OperationContext) {
//	    events = append(events, op)
//	})
package observability
