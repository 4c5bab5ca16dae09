package qalsh

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with qalsh-specific context. This provides
// structured logging with consistent field names across build and query.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithParams adds the derived parameter set as structured fields.
func (l *Logger) WithParams(p Params) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			"n", p.N, "d", p.Dim, "m", p.M, "l", p.L, "w", p.W,
		),
	}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, n, d, m int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed", "n", n, "d", d, "m", m, "error", err)
	} else {
		l.InfoContext(ctx, "build completed", "n", n, "d", d, "m", m)
	}
}

// LogKNN logs a knn query.
func (l *Logger) LogKNN(ctx context.Context, k, found, pageIO, distIO int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "knn failed", "k", k, "error", err)
	} else {
		l.DebugContext(ctx, "knn completed",
			"k", k, "found", found, "page_io", pageIO, "dist_io", distIO,
		)
	}
}

// LogLoad logs an index load from disk.
func (l *Logger) LogLoad(ctx context.Context, path string, m int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed", "path", path, "error", err)
	} else {
		l.InfoContext(ctx, "load completed", "path", path, "m", m)
	}
}
