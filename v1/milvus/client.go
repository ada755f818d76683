package milvus

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/std-milvus/v1/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Aleph-Alpha/std-milvus/v1/milvus"

// Client dispatches typed operations to a connected DatabaseClient.
//
// A Client starts uninitialized, becomes usable after Connect and is
// released by Close. The handle is shared by all callers; the Client adds
// no locking, queuing or retries of its own. Timeouts and retries belong to
// the connection (see ConnectionConfig) and the caller's context.
type Client struct {
	connector Connector
	handle    atomic.Pointer[connection]

	logger   Logger
	observer observability.Observer
	tracer   trace.Tracer
}

type connection struct {
	db  DatabaseClient
	uri string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Operations log at debug level, lifecycle
// events at info level. Errors returned to the caller are not logged.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver sets the observer notified after every operation.
func WithObserver(o observability.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTracerProvider sets the provider used for operation spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// New returns an uninitialized Client that connects through connector.
func New(connector Connector, opts ...Option) *Client {
	c := &Client{
		connector: connector,
		tracer:    otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient creates a Client backed by the Milvus Go SDK and connects it.
//
// Example:
//
//	client, err := milvus.NewClient(ctx, *milvus.FromURI("http://localhost:19530"),
//	    milvus.WithLogger(log),
//	    milvus.WithObserver(metrics),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(ctx context.Context, cfg ConnectionConfig, opts ...Option) (*Client, error) {
	c := New(SDKConnector{}, opts...)
	if err := c.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect validates cfg and opens the connection. It is a no-op when the
// client is already connected. An invalid cfg fails with a *ConnectionError
// wrapping the *ValidationError, before anything is dialed.
func (c *Client) Connect(ctx context.Context, cfg ConnectionConfig) error {
	if c.handle.Load() != nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return &ConnectionError{URI: cfg.URI, Err: err}
	}

	start := time.Now()
	ctx, span := c.startSpan(ctx, OpConnect, "")
	defer span.End()

	db, err := c.connector.Connect(ctx, cfg.withDefaults())
	if err != nil {
		var connErr *ConnectionError
		if !errors.As(err, &connErr) {
			err = &ConnectionError{URI: cfg.URI, Err: err}
		}
		c.finish(ctx, span, OpConnect, cfg.URI, start, err, 0)
		return err
	}

	if !c.handle.CompareAndSwap(nil, &connection{db: db, uri: cfg.URI}) {
		c.logWarn(ctx, "Concurrent connect detected, discarding the duplicate connection", db.Close(), map[string]interface{}{"uri": cfg.URI})
	}

	c.finish(ctx, span, OpConnect, cfg.URI, start, nil, 0)
	c.logInfo(ctx, "Milvus client connected", map[string]interface{}{"uri": cfg.URI, "database": cfg.Database})
	return nil
}

// Close releases the connection. Closing an unconnected client is a no-op.
func (c *Client) Close() error {
	conn := c.handle.Swap(nil)
	if conn == nil {
		return nil
	}
	c.logInfo(context.Background(), "Closing Milvus client", map[string]interface{}{"uri": conn.uri})
	return conn.db.Close()
}

// IsConnected reports whether the client holds a handle.
func (c *Client) IsConnected() bool {
	return c.handle.Load() != nil
}

// execute runs one operation: it checks the handle, runs fn inside a span
// and reports the outcome to the logger and the observer. fn returns the
// item count reported as OperationContext.Size.
func (c *Client) execute(ctx context.Context, operation, resource string, fn func(ctx context.Context, db DatabaseClient) (int64, error)) error {
	start := time.Now()
	ctx, span := c.startSpan(ctx, operation, resource)
	defer span.End()

	var (
		size int64
		err  error
	)
	if conn := c.handle.Load(); conn == nil {
		err = &NotInitializedError{Operation: operation}
	} else {
		size, err = fn(ctx, conn.db)
	}

	c.finish(ctx, span, operation, resource, start, err, size)
	return err
}

func (c *Client) startSpan(ctx context.Context, operation, resource string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "milvus"),
		attribute.String("db.operation.name", operation),
	}
	if resource != "" {
		attrs = append(attrs, attribute.String("db.collection.name", resource))
	}
	return c.tracer.Start(ctx, "milvus."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func (c *Client) finish(ctx context.Context, span trace.Span, operation, resource string, start time.Time, err error, size int64) {
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int64("milvus.items", size))
	}

	c.observeOperation(operation, resource, "", duration, err, size)
	c.logDebug(ctx, "Milvus operation finished", err, map[string]interface{}{
		"operation":   operation,
		"collection":  resource,
		"duration_ms": duration.Milliseconds(),
		"items":       size,
	})
}

// CreateCollection creates a collection from spec.
func (c *Client) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	return c.execute(ctx, OpCreateCollection, spec.Name, func(ctx context.Context, db DatabaseClient) (int64, error) {
		req, err := BuildCreateCollectionRequest(spec)
		if err != nil {
			return 0, err
		}
		if err := db.CreateCollection(ctx, req); err != nil {
			return 0, newRemoteError(OpCreateCollection, err)
		}
		return 0, nil
	})
}

// LoadCollection loads a collection into memory so it can be searched.
func (c *Client) LoadCollection(ctx context.Context, name string) error {
	return c.execute(ctx, OpLoadCollection, name, func(ctx context.Context, db DatabaseClient) (int64, error) {
		if name == "" {
			return 0, missing("collection name")
		}
		if err := db.LoadCollection(ctx, name); err != nil {
			return 0, newRemoteError(OpLoadCollection, err)
		}
		return 0, nil
	})
}

// ListCollections returns the names of all collections in the database.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := c.execute(ctx, OpListCollections, "", func(ctx context.Context, db DatabaseClient) (int64, error) {
		var err error
		names, err = db.ListCollections(ctx)
		if err != nil {
			return 0, newRemoteError(OpListCollections, err)
		}
		if names == nil {
			names = []string{}
		}
		return int64(len(names)), nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CreateIndex builds the indexes described by spec.
func (c *Client) CreateIndex(ctx context.Context, spec CreateIndexSpec) error {
	return c.execute(ctx, OpCreateIndex, spec.CollectionName, func(ctx context.Context, db DatabaseClient) (int64, error) {
		req, err := BuildCreateIndexRequest(spec)
		if err != nil {
			return 0, err
		}
		if err := db.CreateIndex(ctx, req); err != nil {
			return 0, newRemoteError(OpCreateIndex, err)
		}
		return int64(len(req.IndexParams)), nil
	})
}

// Upsert inserts or replaces spec.Row.
func (c *Client) Upsert(ctx context.Context, spec UpsertSpec) error {
	return c.execute(ctx, OpUpsert, spec.CollectionName, func(ctx context.Context, db DatabaseClient) (int64, error) {
		req, err := BuildUpsertRequest(spec)
		if err != nil {
			return 0, err
		}
		if err := db.Upsert(ctx, req); err != nil {
			return 0, remoteOrLocal(OpUpsert, err)
		}
		return int64(len(req.Rows)), nil
	})
}

// UpsertRows upserts rows one by one using spec for everything but the
// row. It stops at the first failure and returns the number of rows written.
func (c *Client) UpsertRows(ctx context.Context, spec UpsertSpec, rows ...Row) (int, error) {
	for i, row := range rows {
		spec.Row = row
		if err := c.Upsert(ctx, spec); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// Delete removes the entities selected by spec and returns how many were
// deleted.
func (c *Client) Delete(ctx context.Context, spec DeleteSpec) (int64, error) {
	var deleted int64
	resource := ""
	if spec.CollectionName != nil {
		resource = *spec.CollectionName
	}
	err := c.execute(ctx, OpDelete, resource, func(ctx context.Context, db DatabaseClient) (int64, error) {
		req, err := BuildDeleteRequest(spec)
		if err != nil {
			return 0, err
		}
		resp, err := db.Delete(ctx, req)
		if err != nil {
			return 0, newRemoteError(OpDelete, err)
		}
		if resp != nil {
			deleted = resp.DeletedCount
		}
		return deleted, nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Search runs a similarity search and returns one ranked hit list per query
// vector, in the order the vectors were given.
func (c *Client) Search(ctx context.Context, query SearchQuery) (SearchResult, error) {
	var result SearchResult
	err := c.execute(ctx, OpSearch, query.CollectionName, func(ctx context.Context, db DatabaseClient) (int64, error) {
		req, err := BuildSearchRequest(query)
		if err != nil {
			return 0, err
		}
		raw, err := db.Search(ctx, req)
		if err != nil {
			return 0, newRemoteError(OpSearch, err)
		}
		result, err = ProjectSearchResponse(raw)
		if err != nil {
			return 0, err
		}

		var hits int64
		for _, q := range result {
			hits += int64(len(q))
		}
		return hits, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
