// Package logging configures the slog logger used for client diagnostics.
// Diagnostics always go to stderr so stdout stays reserved for API output.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelOff is above every level the client logs at.
const LevelOff = slog.Level(12)

// ParseLevel normalizes a log level string into slog.Level.
// Unknown values return slog.LevelWarn with an error.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	switch s {
	case "":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	case "off", "none", "quiet":
		return LevelOff, nil
	default:
		return slog.LevelWarn, errors.New("invalid log level: " + s)
	}
}

// Options controls logger formatting.
// Writer defaults to stderr when not provided.
type Options struct {
	Level  string
	JSON   bool
	Writer io.Writer
}

// New constructs a configured slog.Logger.
func New(opt Options) (*slog.Logger, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}
	w := opt.Writer
	if w == nil {
		w = os.Stderr
	}
	lo := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	var h slog.Handler
	if opt.JSON {
		h = slog.NewJSONHandler(w, lo)
	} else {
		h = slog.NewTextHandler(w, lo)
	}
	return slog.New(h).With("component", "sshservctl"), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelOff}))
}
