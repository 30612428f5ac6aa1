package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stderr so stdout stays
// machine readable. Level comes from the argument; LOG_LEVEL
// overrides it (default info).
func New(level string) *slog.Logger {
	lvl := slog.LevelInfo
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(level)); err == nil {
			lvl = parsed
		}
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
