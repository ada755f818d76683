package vectordb

import "context"

// Service is a database-agnostic surface for vector similarity search.
// Application code that depends on Service does not import a database SDK;
// milvus.Adapter is the implementation shipped with this module.
//
// Example:
//
//	func NewSearchService(db vectordb.Service) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	svc := NewSearchService(milvus.NewAdapter(client))
type Service interface {
	// Search runs one or more requests and returns one result slice per
	// request, in request order. Requests may target different collections.
	//
	// Example:
	//   results, err := db.Search(ctx,
	//       SearchRequest{CollectionName: "docs", Vector: vec1, TopK: 10},
	//       SearchRequest{CollectionName: "docs", Vector: vec2, TopK: 5, Filters: filters},
	//   )
	Search(ctx context.Context, requests ...SearchRequest) ([][]SearchResult, error)

	// Insert writes embeddings to a collection, replacing entries with the
	// same ID.
	Insert(ctx context.Context, collectionName string, inputs []EmbeddingInput) error

	// Delete removes entries by ID and returns how many were removed.
	Delete(ctx context.Context, collectionName string, ids []string) (int64, error)

	// EnsureCollection creates and loads a collection if it does not exist.
	// Calling it for an existing collection is a no-op.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)
}
