package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger: JSON to stderr, or a console writer with debug level in dev.
func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	if !dev {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
		return time.Now().Format(time.RFC3339)
	}}).Level(level).With().Timestamp().Caller().Stack().Logger()
}
