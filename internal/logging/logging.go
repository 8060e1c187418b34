// Package logging builds the structured loggers used outside the core.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog.Logger for the given service. Output goes to
// stderr because stdout carries command output and the MCP stream.
func New(service string, level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, service, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

// ParseLevel maps a config value to a level. Unknown values mean info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
