// Package observability centralizes logging setup and runtime telemetry.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// GetLoggerFromString builds a text slog.Logger whose level is parsed from
// a config string (DEBUG, INFO, WARN, ERROR). Unknown values fall back to INFO.
func GetLoggerFromString(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN", "WARNING":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
