// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = build(consoleWriter(os.Stdout), zerolog.InfoLevel)
	log.Logger = Log
}

// Configure switches the output format ("console" or "json") and level.
// The package-level zerolog logger is kept in sync so code logging through
// github.com/rs/zerolog/log picks up the same settings.
func Configure(format, levelStr string) {
	ConfigureWriter(os.Stdout, format, levelStr)
}

// ConfigureWriter is Configure with an explicit destination. Command line
// tools log to stderr so stdout carries only their output.
func ConfigureWriter(w io.Writer, format, levelStr string) {
	var out io.Writer = consoleWriter(w)
	if strings.EqualFold(format, "json") {
		out = w
	}

	Log = build(out, parseLevel(levelStr))
	log.Logger = Log
}

func build(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func parseLevel(levelStr string) zerolog.Level {
	if levelStr == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		return zerolog.InfoLevel
	}
	return level
}
