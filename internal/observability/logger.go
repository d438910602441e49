package observability

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "barebtc-backend"

// NewLogger returns the process logger: JSON in production, text elsewhere.
// Local runs also get debug output, which covers per-query adapter logs.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case "prod", "production":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "local", "dev":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(h).With("service", serviceName)
}
