// Package log provides slog setup helpers shared by all flowd binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide default logger writing text records to
// stderr at the given level.
func Setup(logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	})))
}

// ParseLevel resolves a level name ("debug", "warn", offsets like "error+2")
// case-insensitively. Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}

	return level
}

// WithModule returns the default logger tagged with a module attribute.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
