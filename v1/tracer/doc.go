// Package tracer wires OpenTelemetry tracing for std-milvus services.
//
// NewClient builds an SDK TracerProvider tagged with the service name and
// deployment environment, optionally exporting over OTLP/HTTP, and installs
// it as the global provider. The milvus client picks up the global provider
// by default, so every facade operation shows up as a "milvus.<operation>"
// span without extra wiring.
//
// Basic usage:
//
//	import (
//		"github.com/Aleph-Alpha/std-milvus/v1/logger"
//		"github.com/Aleph-Alpha/std-milvus/v1/tracer"
//	)
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//	tr := tracer.NewClient(tracer.Config{
//		ServiceName:  "search-store",
//		AppEnv:       "staging",
//		EnableExport: true,
//	}, log)
//	defer tr.Shutdown(context.Background())
//
//	ctx, span := tr.StartSpan(ctx, "reindex")
//	defer span.End()
//	tr.SetAttributes(span, map[string]interface{}{"collection": "docs"})
//
// Propagation across a process boundary:
//
//	headers := tr.GetCarrier(ctx)          // sender
//	ctx = tr.SetCarrierOnContext(ctx, hdr) // receiver
//
// FX:
//
//	app := fx.New(
//		logger.FXModule,
//		tracer.FXModule,
//		fx.Supply(tracer.Config{ServiceName: "search-store"}),
//	)
package tracer
