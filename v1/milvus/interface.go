package milvus

import "context"

//go:generate mockgen -source=interface.go -destination=mock_database_client.go -package=milvus

// Logger is the subset of logger.Logger used by the client.
// *logger.LoggerClient implements it.
type Logger interface {
	// DebugWithContext logs a per-operation message with trace context.
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// InfoWithContext logs a lifecycle message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Connector opens a DatabaseClient for a connection config.
type Connector interface {
	Connect(ctx context.Context, cfg ConnectionConfig) (DatabaseClient, error)
}

// DatabaseClient is the network-facing capability the Client dispatches to.
// Implementations must be safe for concurrent use. SDKConnector returns the
// implementation backed by the Milvus Go SDK.
type DatabaseClient interface {
	CreateCollection(ctx context.Context, req *CreateCollectionRequest) error
	LoadCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, req *CreateIndexRequest) error
	Upsert(ctx context.Context, req *UpsertRequest) error
	Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error)
	Search(ctx context.Context, req *SearchRequest) (RawSearchResponse, error)
	Close() error
}

// Service is the caller-facing surface implemented by *Client.
type Service interface {
	// Connect opens the connection. Calling it on a connected client is a no-op.
	Connect(ctx context.Context, cfg ConnectionConfig) error

	CreateCollection(ctx context.Context, spec CollectionSpec) error
	LoadCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, spec CreateIndexSpec) error

	// Upsert writes a single row.
	Upsert(ctx context.Context, spec UpsertSpec) error

	// UpsertRows writes rows one request at a time and returns how many
	// were written before the first failure.
	UpsertRows(ctx context.Context, spec UpsertSpec, rows ...Row) (int, error)

	// Delete returns the number of deleted entities.
	Delete(ctx context.Context, spec DeleteSpec) (int64, error)

	Search(ctx context.Context, query SearchQuery) (SearchResult, error)

	// Close releases the connection. Later operations fail with
	// *NotInitializedError.
	Close() error
}

var _ Service = (*Client)(nil)
