// Package logging provides the structured logger used by the cmd/rulegen
// and cmd/traceload entrypoints, in the zerolog style the example corpus
// uses for CLI tooling (chaos-utils' pkg/reporting/logger.go).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level names the four levels the "--log-level" flag accepts.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format names the two rendering styles the "--log-format" flag accepts.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures New.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// New builds a zerolog.Logger per cfg. A nil cfg.Output defaults to stderr,
// keeping generated corpus data (written to stdout or -o files) separate
// from progress/diagnostic logging.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: false}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LevelWarn:
		logger = logger.Level(zerolog.WarnLevel)
	case LevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}
