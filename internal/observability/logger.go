package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	ctxKeyRunID ctxKey = "run_id"
)

// discards until Setup is called; the terminal belongs to the UI.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup points the package logger at w.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger
}

// SetupFile opens path for appending and logs there. An empty path keeps
// logging disabled. The returned close func is never nil.
func SetupFile(path string, level slog.Level) (func() error, error) {
	if strings.TrimSpace(path) == "" {
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return func() error { return nil }, err
	}
	Setup(f, level)
	return f.Close, nil
}

// ParseLevel maps debug/info/warn/error, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithRunID stores a run_id in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, runID)
}

// LoggerFromContext adds run_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	runID, _ := ctx.Value(ctxKeyRunID).(string)
	if runID == "" {
		return logger
	}
	return logger.With("run_id", runID)
}
