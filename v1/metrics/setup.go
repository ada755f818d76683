package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated Prometheus registry, the HTTP server exposing it
// and the built-in vector database operation metrics.
//
// *Metrics implements observability.Observer, so it can be handed directly to
// milvus.WithObserver.
type Metrics struct {
	// Server exposes the /metrics endpoint.
	Server *http.Server

	// Registry is the isolated registry all metrics are registered with.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationItems    *prometheus.HistogramVec
}

// NewMetrics initializes a Metrics instance.
//
// All collectors are registered through a registerer wrapped with the
// constant label service="<cfg.ServiceName>". The operation metrics are:
//
//   - vectordb_operations_total{component,operation,status}
//   - vectordb_operation_duration_seconds{component,operation}
//   - vectordb_operation_items{component,operation}
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "search-store",
//	    EnableDefaultCollectors: true,
//	})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "vectordb_operations_total",
		"Total number of vector database operations", []string{"component", "operation", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "vectordb_operation_duration_seconds",
		"Duration of vector database operations in seconds", []string{"component", "operation"}, prometheus.DefBuckets)
	m.operationItems = createHistogramVec(cfg.Namespace, "vectordb_operation_items",
		"Number of rows or hits handled per operation", []string{"component", "operation"}, prometheus.ExponentialBuckets(1, 4, 8))

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.operationItems,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	addr := cfg.Address
	if addr == "" {
		addr = DefaultMetricsAddress
	}

	m.Server = &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	return m
}
