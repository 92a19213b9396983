package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured JSON logger using slog. The level is taken from
// BEACON_LOG_LEVEL (debug, info, warn, error), defaulting to info.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: levelFromEnv(),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("BEACON_LOG_LEVEL")) {
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
