package logger

// Levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// ConsoleEncoding selects zap's human readable encoder. Any other
// Config.Encoding value means JSON.
const ConsoleEncoding = "console"

// Config holds the logger settings.
type Config struct {
	// Level is one of "debug", "info", "warning" or "error".
	// Anything else falls back to "info".
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// Encoding is "json" (default) or "console".
	Encoding string `yaml:"encoding" envconfig:"LOGGER_ENCODING"`

	// EnableTracing adds trace_id and span_id to entries written through the
	// *WithContext methods when the context carries an OpenTelemetry span.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME"`
}
