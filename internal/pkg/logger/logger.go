package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewDefault builds a JSON slog logger on stdout at the given level.
func NewDefault(level string) *slog.Logger {
	return New(os.Stdout, level)
}

// New builds a JSON slog logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// ParseLevel maps a config level name to slog.Level, defaulting to info.
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
