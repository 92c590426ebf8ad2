// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
)

// Options selects the handler and level.
type Options struct {
	Level string
	JSON  bool
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: parseLogLevel(opts.Level)}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, ho)
	} else {
		handler = slog.NewTextHandler(w, ho)
	}
	return slog.New(handler)
}

// Init installs a logger as the slog default and returns it.
func Init(w io.Writer, opts Options) *slog.Logger {
	l := New(w, opts)
	slog.SetDefault(l)

	l.With("component", "logger").Debug("Logger initialized",
		"level", opts.Level,
		"json_format", opts.JSON,
	)
	return l
}

func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
