// Package logging builds the process logger from configuration and adapts
// it to the controller's FlightLogger port.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/config"
)

// New creates a slog logger writing where cfg says. The returned closer
// flushes and closes a log file; it is a no-op for stdout and stderr.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	w, closer, err := output(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.IncludeCaller,
	}

	var h slog.Handler
	switch cfg.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

func output(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch cfg.Output {
	case "", "stderr":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.file_path is required for file output")
		}
		if cfg.Rotation.Enabled {
			w := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.Rotation.MaxSize, // MB
				MaxBackups: cfg.Rotation.MaxBackups,
				MaxAge:     cfg.Rotation.MaxAge,
				Compress:   cfg.Rotation.Compress,
			}
			return w, w, nil
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a config or FlightLogger level name to a slog level.
// Unknown names log at info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FlightLogger adapts a slog logger to common.FlightLogger, turning the
// metadata map into attributes.
type FlightLogger struct {
	logger *slog.Logger
}

// NewFlightLogger wraps logger. A nil logger uses slog.Default.
func NewFlightLogger(logger *slog.Logger) *FlightLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightLogger{logger: logger}
}

func (l *FlightLogger) Log(level, message string, metadata map[string]interface{}) {
	attrs := make([]slog.Attr, 0, len(metadata))
	for _, k := range slices.Sorted(maps.Keys(metadata)) {
		attrs = append(attrs, slog.Any(k, metadata[k]))
	}
	l.logger.LogAttrs(context.Background(), ParseLevel(level), message, attrs...)
}

var _ common.FlightLogger = (*FlightLogger)(nil)
