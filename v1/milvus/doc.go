// Package milvus provides a typed client for the Milvus vector database.
//
// The package translates between caller data and the dynamically typed
// Milvus data model in three pure layers, and dispatches through a small
// facade:
//
//   - Value, Row, EncodeRow and DecodeEntity: the dynamic field codec. A
//     Row holds the vector field, the primary key and any number of dynamic
//     fields of arbitrary nesting.
//   - Build*Request: request builders that validate input and apply
//     defaults (vector field "vector", primary key "id", output fields "*",
//     metric COSINE).
//   - ProjectSearchResponse: turns raw hits into ranked, typed results,
//     keeping query order and rank order exactly as returned.
//   - Client: owns the connection and runs every operation as
//     validate → build → call → project, wrapping failures into the error
//     taxonomy of this package.
//
// # Basic Usage
//
//	import (
//		"github.com/Aleph-Alpha/std-milvus/v1/milvus"
//	)
//
//	client, err := milvus.NewClient(ctx, *milvus.FromURI("http://localhost:19530").
//		WithCredentials("root", "Milvus"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.CreateCollection(ctx, milvus.CollectionSpec{Name: "docs", Dimension: 768})
//
//	err = client.Upsert(ctx, milvus.UpsertSpec{
//		CollectionName: "docs",
//		Row: milvus.Row{
//			"id":     milvus.IntValue(42),
//			"vector": milvus.FloatVectorValue(embedding),
//			"title":  milvus.StringValue("Quarterly report"),
//			"meta": milvus.MapValue(map[string]milvus.Value{
//				"tags": milvus.ArrayValue(milvus.StringValue("finance")),
//			}),
//		},
//	})
//
//	result, err := client.Search(ctx, milvus.SearchQuery{
//		CollectionName: "docs",
//		QueryVectors:   [][]float32{embedding},
//		TopK:           5,
//		Filter:         `title like "Quarterly%"`,
//	})
//	for _, hit := range result[0] {
//		fmt.Println(hit.PrimaryKey, hit.Score, hit.Entity["title"])
//	}
//
// # Error Handling
//
// Validation and encoding errors are detected locally and returned before
// any request is sent. Failures reported by Milvus are wrapped in
// *RemoteOperationError with an operation-specific message; the original
// cause stays reachable with errors.Is and errors.As:
//
//	_, err := client.Search(ctx, query)
//	switch {
//	case milvus.IsNotInitializedError(err):
//		// Connect was never called or the client was closed
//	case milvus.IsValidationError(err), milvus.IsEncodingError(err):
//		// bad input
//	case errors.Is(err, context.DeadlineExceeded):
//		// the RPC deadline or the caller's context expired
//	case milvus.IsRemoteOperationError(err):
//		// rejected by the server
//	}
//
// Errors are never retried by this package.
//
// # Observability
//
// Every operation starts a "milvus.<operation>" span, reports an
// observability.OperationContext to the configured observer (see
// metrics.Metrics) and logs a debug line when a logger is set. Errors that
// are returned to the caller are not logged.
//
// # FX Module
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule,
//		milvus.FXModule,
//		fx.Supply(*milvus.FromURI("http://localhost:19530")),
//	)
//
// # Thread Safety
//
// Client, Adapter and the SDK-backed DatabaseClient are safe for concurrent
// use.
package milvus
