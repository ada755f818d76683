package tracer

import (
	"context"

	"github.com/Aleph-Alpha/std-milvus/v1/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	traceSpan "go.opentelemetry.io/otel/trace"
)

// Tracer provides a simplified API for distributed tracing with OpenTelemetry.
// It wraps the SDK TracerProvider and provides convenient methods for
// creating spans, recording errors, and propagating trace context.
//
// The Tracer is safe to share across goroutines.
type Tracer struct {
	tracer *sdktrace.TracerProvider
	logger logger.Logger
}

// NewClient creates and initializes a new Tracer instance with OpenTelemetry.
//
// If export is enabled an OTLP HTTP exporter is attached through a batching
// span processor. The provider is installed as the global OpenTelemetry
// provider together with W3C trace-context and baggage propagators, so
// libraries that use otel.GetTracerProvider() (the milvus client included)
// emit their spans through it.
//
// Example:
//
//	tracerClient := tracer.NewClient(tracer.Config{
//	    ServiceName:  "search-store",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	}, log)
//
//	ctx, span := tracerClient.StartSpan(context.Background(), "reindex")
//	defer span.End()
func NewClient(cfg Config, log logger.Logger) *Tracer {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		client := otlptracehttp.NewClient()
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			log.Fatal("cannot initiate tracer", err, nil)
			return nil
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	return newTracer(cfg, log, options...)
}

func newTracer(cfg Config, log logger.Logger, options ...sdktrace.TracerProviderOption) *Tracer {
	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)

	return &Tracer{tracer: tp, logger: log}
}

// TracerProvider exposes the provider, e.g. for milvus.WithTracerProvider.
func (t *Tracer) TracerProvider() traceSpan.TracerProvider {
	return t.tracer
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}
