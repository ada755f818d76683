// Package metrics exposes Prometheus metrics for std-milvus services.
//
// NewMetrics creates an isolated registry labelled with the service name,
// registers the vector database operation metrics and optionally the Go
// runtime collectors, and prepares an HTTP server serving /metrics.
//
// *Metrics implements observability.Observer. Passing it to the milvus client
// records one sample per facade call:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "search-store"})
//	go m.Server.ListenAndServe()
//
//	client, err := milvus.NewClient(ctx, cfg, milvus.WithObserver(m))
//
// Custom metrics go through the same registry:
//
//	misses := m.CreateCounter("cache_misses_total", "Embedding cache misses", []string{"model"})
//	misses.WithLabelValues("e5").Inc()
//
// With FX, FXModule provides *Metrics, MetricsCollector and
// observability.Observer, and manages the server lifecycle.
package metrics
