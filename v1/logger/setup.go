package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerClient implements Logger on top of a *zap.Logger.
type LoggerClient struct {
	// Zap is exposed for callers that need zap-specific features such as
	// Named or With. Everyday logging goes through the wrapper methods.
	Zap *zap.Logger

	tracingEnabled bool
}

// NewLoggerClient builds a logger writing to stderr. Entries carry an ISO8601
// "timestamp", an upper-case level, the caller, the pid and the configured
// service name. A zap build failure is fatal.
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info, ServiceName: "search-store"})
//	log.Info("Application started", nil, nil)
func NewLoggerClient(cfg Config) *LoggerClient {
	zl, err := zapConfig(cfg).Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}
	return &LoggerClient{Zap: zl, tracingEnabled: cfg.EnableTracing}
}

// NewNopLogger returns a LoggerClient that discards everything.
func NewNopLogger() *LoggerClient {
	return &LoggerClient{Zap: zap.NewNop()}
}

func zapConfig(cfg Config) zap.Config {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := "json"
	if cfg.Encoding == ConsoleEncoding {
		encoding = ConsoleEncoding
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	fields := map[string]interface{}{"pid": os.Getpid()}
	if cfg.ServiceName != "" {
		fields["service"] = cfg.ServiceName
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    fields,
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
