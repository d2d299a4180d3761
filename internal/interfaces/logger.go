package interfaces

// Logger is the structured logger handed to every component.
// keyvals are alternating keys and values; a trailing key without a value is dropped.
type Logger interface {
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	// SetLevel accepts debug, info, warn or error. Unknown levels fall back to info.
	SetLevel(level string)
	// WithContext returns a child logger that adds ctx to every entry.
	WithContext(ctx map[string]interface{}) Logger
}
