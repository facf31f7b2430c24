// Package logging configures the process-wide slog logger and carries
// per-request metadata for audit entries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the default slog logger to emit JSON to stdout at the
// given level ("debug", "info", "warn" or "error").
func Init(level string) *slog.Logger {
	return InitWriter(os.Stdout, level)
}

// InitWriter is Init with an explicit destination, used by tests.
func InitWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler).With("service", "inquill")
	slog.SetDefault(logger)
	return logger
}

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
