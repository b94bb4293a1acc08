package nativecol

// Logger defines the interface for logging in nativecol.
// Users can implement this interface to integrate with their preferred logging library.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...any)

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keyvals ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...any)
}

// noOpLogger is a no-op logger that discards all log messages.
// This is the default logger when none is provided.
type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, keyvals ...any) {}
func (n *noOpLogger) Info(msg string, keyvals ...any)  {}
func (n *noOpLogger) Warn(msg string, keyvals ...any)  {}
func (n *noOpLogger) Error(msg string, keyvals ...any) {}

var defaultLogger Logger = &noOpLogger{}

// SetLogger sets the package-level default logger.
// NewClient uses it for a client built without WithClientLogger; a client
// keeps the logger it had at construction.
func SetLogger(logger Logger) {
	if logger == nil {
		defaultLogger = &noOpLogger{}
		return
	}
	defaultLogger = logger
}

// GetLogger returns the current global logger.
func GetLogger() Logger {
	return defaultLogger
}

// getLoggerHelper returns logger, defaulting to the global logger if nil.
// Defensive against manually constructed instances that skip NewClient.
func getLoggerHelper(logger Logger) Logger {
	if logger == nil {
		return defaultLogger
	}
	return logger
}
