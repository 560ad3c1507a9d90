package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/glimpse-app/glimpse/pkg/models"
)

var globalLogger *slog.Logger

// Init initializes the global logger based on application settings. A nil
// writer logs to stdout; tests pass io.Discard. Safe to call more than once.
func Init(settings models.ApplicationSettings, w io.Writer) error {
	var level slog.Level
	switch strings.ToLower(settings.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(settings.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

// L returns the global logger, falling back to slog's default when Init has
// not been called.
func L() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
