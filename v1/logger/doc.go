// Package logger is the zap-backed structured logger shared by the milvus
// client, the vectordb adapter and milvusctl.
//
// Every method takes a message, an optional error and any number of field
// maps; later maps win on duplicate keys. The *WithContext variants also add
// trace_id and span_id when Config.EnableTracing is set and ctx carries a
// valid OpenTelemetry span, so a slow search can be found from its trace.
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//		ServiceName:   "search-store",
//	})
//	log.InfoWithContext(ctx, "Search finished", nil, map[string]interface{}{
//		"collection": "docs",
//		"queries":    2,
//	})
//
// *LoggerClient satisfies milvus.Logger directly, so it can be passed to
// milvus.NewClient or milvus.WithLogger without an adapter.
//
// With fx, FXModule provides both *LoggerClient and the Logger interface and
// flushes the zap buffer on stop:
//
//	fx.New(
//		logger.FXModule,
//		fx.Supply(logger.Config{Level: logger.Debug}),
//		milvus.FXModule,
//	)
//
// Config can also be filled from ZAP_LOGGER_LEVEL, LOGGER_ENABLE_TRACING and
// LOGGER_SERVICE_NAME. NewNopLogger discards everything and is what tests and
// a non-verbose milvusctl use.
package logger
