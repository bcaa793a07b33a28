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
	ctxKeySessionID  ctxKey = "session_id"
	ctxKeyInstanceID ctxKey = "instance_id"
)

// Setup installs a JSON slog logger at the given level as the process default.
func Setup(logLevel string) *slog.Logger {
	return SetupWriter(os.Stdout, logLevel)
}

// SetupWriter is Setup with an explicit sink.
func SetupWriter(w io.Writer, logLevel string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}))
	slog.SetDefault(logger)
	return logger
}

func ParseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithInstance stores the widget instance and session ids in the context.
func WithInstance(ctx context.Context, instanceID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyInstanceID, instanceID)
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// FromContext returns the default logger enriched with ids found in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if ctx == nil {
		return logger
	}
	if id, _ := ctx.Value(ctxKeyInstanceID).(string); id != "" {
		logger = logger.With("instance_id", id)
	}
	if id, _ := ctx.Value(ctxKeySessionID).(string); id != "" {
		logger = logger.With("session_id", id)
	}
	return logger
}
