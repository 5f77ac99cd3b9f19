// Package logging builds the structured diagnostic logger used across stash-mcp.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jamesprial/stash-mcp/internal/config"
)

// New returns a logger writing to w in the format and at the level named by
// cfg. Unknown formats fall back to text; unknown levels fall back to info.
func New(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup builds a logger writing to w (stderr when nil) from cfg and installs
// it as the slog default.
func Setup(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := New(w, cfg)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// OrDefault returns logger, or slog.Default() when logger is nil.
func OrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
