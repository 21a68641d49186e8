// Package logger builds the process-wide structured logger (spec §6),
// grounded on aristath/sentinel's pkg/logger: zerolog, RFC3339 timestamps,
// a pretty console writer in dev mode.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the built logger's verbosity and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool
}

// New builds a zerolog.Logger from cfg.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
