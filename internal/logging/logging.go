package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger tagged with name. An unparsable level falls
// back to info.
func New(name, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("logger", name).
		Logger()
}

// Default logs to stderr at info level.
func Default(name string) zerolog.Logger {
	return New(name, "info", os.Stderr)
}
