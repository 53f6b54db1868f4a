// Package logging builds the slog loggers of the catena commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New returns the logger of the command line tools. It writes to stderr:
// stdout carries run reports, JSON outcomes and MCP JSON-RPC frames.
func New(level slog.Level) *slog.Logger {
	return NewTo(os.Stderr, level)
}

// NewTo returns a text logger writing to w. Attributes logged as "error"
// are renamed "err", the key the runtime and the adapters use.
func NewTo(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config log_level ("debug", "info", "warn", "error") to a
// slog.Level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
