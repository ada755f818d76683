package vectordb

// SearchRequest is one similarity query.
type SearchRequest struct {
	// CollectionName is the collection to search.
	CollectionName string `json:"collectionName"`

	// Vector is the query embedding.
	Vector []float32 `json:"vector"`

	// TopK is the maximum number of results.
	TopK int `json:"maxResults"`

	// Filters restricts the candidates (AND/OR/NOT).
	Filters *FilterSet `json:"filters,omitempty"`
}

// SearchResult is one hit, in the order returned by the database.
type SearchResult struct {
	// ID of the matched entry.
	ID string `json:"id"`

	// Score is the similarity score; higher is closer for cosine and IP.
	Score float32 `json:"score"`

	// Payload holds the stored fields other than the ID and the vector.
	// User fields live under the "custom" key.
	Payload map[string]any `json:"payload"`

	// Vector is the stored embedding, when the database returned it.
	Vector []float32 `json:"vector,omitempty"`

	// CollectionName is the collection the hit came from.
	CollectionName string `json:"collectionName,omitempty"`
}

// EmbeddingInput is one entry to insert.
type EmbeddingInput struct {
	// ID uniquely identifies the entry. Milvus collections created by
	// EnsureCollection use integer keys, so the ID must be a decimal int64.
	ID string `json:"id"`

	// Vector is the dense embedding.
	Vector []float32 `json:"vector"`

	// Payload holds internal fields stored next to the vector.
	Payload map[string]any `json:"payload,omitempty"`

	// UserPayload holds user-defined fields, stored under "custom".
	UserPayload map[string]any `json:"userPayload,omitempty"`
}
