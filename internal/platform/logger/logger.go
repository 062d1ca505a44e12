// Package logger provides structured logging for the application: a JSON
// slog setup driven by configuration, plus helpers for carrying a
// request-scoped logger through context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// contextKey is the private type for the logger context key.
type contextKey struct{}

// Setup initializes the application's logging system. It creates a
// structured JSON logger at the given level, sets it as the process default,
// and returns it.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default level",
			"configured_level", level,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// WithLogger returns a context carrying the given logger. Handlers attach a
// request-scoped logger (with trace ID) so lower layers log with the same
// correlation fields.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		panic("logger cannot be nil")
	}
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger carried by the context, or the process
// default when none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger carried by the context, falling
// back to the supplied default rather than the process default.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
