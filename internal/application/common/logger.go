package common

import "context"

// Log levels understood by FlightLogger implementations.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARNING"
	LevelError = "ERROR"
)

// FlightLogger records controller activity
type FlightLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger FlightLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) FlightLogger {
	if logger, ok := ctx.Value(loggerKey).(FlightLogger); ok {
		return logger
	}
	return NoOpLogger()
}

// NoOpLogger returns a logger that discards everything
func NoOpLogger() FlightLogger {
	return &noOpLogger{}
}

type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}
