// Package logger builds the application's structured logger and carries it
// through request contexts.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger.
type ContextKey string

// LoggerKey is the context key for the logger instance.
const LoggerKey ContextKey = "logger"

// New creates a structured console logger at the given level. Unknown level
// strings fall back to info.
func New(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()
}

// NewWithWriter creates a logger with a custom writer, mostly for tests.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, log)
}

// FromContext retrieves the logger from the context or returns a default
// logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return log
	}
	return New("info")
}
