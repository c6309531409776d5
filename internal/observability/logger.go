// Package observability wires structured logging and Prometheus metrics for
// the rendering engine.
package observability

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the service logger. Format "json" emits machine-readable
// logs for production; anything else gets a tinted text handler for local
// development.
func NewLogger(level, format string) *slog.Logger {
	lvl := parseLevel(level)

	if strings.EqualFold(format, "json") {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
		return slog.New(h).With("app", "heatmapd")
	}

	h := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", "heatmapd")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
