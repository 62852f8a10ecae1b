// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar controls the log level: debug, info, warn, error (default info).
const LevelEnvVar = "STYLEAI_LOG_LEVEL"

// Init configures human-readable console logging on stderr, for the CLI and
// the local web server.
func Init() {
	zerolog.SetGlobalLevel(levelFromEnv())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// InitJSON configures structured JSON logging on w, for Lambda where
// CloudWatch indexes the fields.
func InitJSON(w io.Writer) {
	zerolog.SetGlobalLevel(levelFromEnv())
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv(LevelEnvVar)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
