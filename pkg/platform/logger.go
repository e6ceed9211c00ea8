package platform

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog logger. Format "json" writes structured lines,
// anything else uses the human readable console writer.
func NewLogger(levelStr, formatStr string, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = zerolog.InfoLevel
	}

	if formatStr != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// InitLogger configures the global zerolog logger for a command.
func InitLogger(levelStr, formatStr string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := NewLogger(levelStr, formatStr, os.Stderr)
	zerolog.DefaultContextLogger = &logger
	return logger
}
