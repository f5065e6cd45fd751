// Package logging centralizes structured log setup, replacing the
// teacher's bare log.Printf call sites with a configurable slog handler.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger with the requested level and format ("text" or
// "json"); unrecognized values fall back to text/info.
func New(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
