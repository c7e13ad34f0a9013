package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger: human-readable console output in
// development, JSON lines everywhere else.
func Setup(level zerolog.Level, console bool) zerolog.Logger {
	return SetupTo(os.Stdout, level, console)
}

func SetupTo(out io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
