// Package logging sets up the zerolog logger used across the service:
// JSON output for production, console output for development.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string
	// Format is "json" or "console".
	Format string
}

// New builds the root logger. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
