// Package vectordb defines a database-agnostic surface for vector search.
//
// Application code depends on [Service] and the filter types of this
// package only. The Milvus implementation is milvus.Adapter, which compiles
// filters into Milvus boolean expressions.
//
//	┌───────────────────────────────┐
//	│       Application layer       │
//	└───────────────┬───────────────┘
//	                ▼
//	┌───────────────────────────────┐
//	│       vectordb.Service        │
//	└───────────────┬───────────────┘
//	                ▼
//	┌───────────────────────────────┐
//	│ milvus.Adapter → milvus.Client│
//	└───────────────────────────────┘
//
// # Usage
//
//	client, err := milvus.NewClient(ctx, *milvus.FromURI("http://localhost:19530"))
//	if err != nil {
//	    return err
//	}
//	var db vectordb.Service = milvus.NewAdapter(client)
//
//	if err := db.EnsureCollection(ctx, "documents", 768); err != nil {
//	    return err
//	}
//
//	results, err := db.Search(ctx, vectordb.SearchRequest{
//	    CollectionName: "documents",
//	    Vector:         vector,
//	    TopK:           10,
//	    Filters: vectordb.NewFilterSet(
//	        vectordb.Must(vectordb.NewMatch("status", "published")),
//	    ),
//	})
//
// # Filter Types
//
//	| Type                  | Description       | Milvus expression             |
//	|-----------------------|-------------------|-------------------------------|
//	| MatchCondition        | Exact value match | field == value                |
//	| MatchAnyCondition     | Value in set      | field in [...]                |
//	| MatchExceptCondition  | Value not in set  | field not in [...]            |
//	| NumericRangeCondition | Numeric range     | field >= min and field < max  |
//	| TimeRangeCondition    | Unix-second range | field >= 1700000000 and ...   |
//
// Internal fields are addressed at the top level. User fields live under
// "custom" and are addressed as custom["field"]:
//
//	vectordb.NewMatch("status", "published")      // status == "published"
//	vectordb.NewUserMatch("category", "research") // custom["category"] == "research"
//
// Filters round-trip through JSON, so they can be accepted from API
// requests directly.
package vectordb
