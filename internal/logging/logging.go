package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog Logger writing to w (stdout when nil).
// APP_ENV=dev (or development) uses a human-friendly console writer.
// An unknown level falls back to info.
func New(env, level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "reviewapi").Logger()
}
