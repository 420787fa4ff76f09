// Package logging builds the zerolog logger shared by the application.
package logging

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var setTimeFormat sync.Once

// New returns a logger writing to w at the given level. pretty selects the
// human-readable console format, which is what the CLI uses on a terminal.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	setTimeFormat.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	})

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", "arttools").
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
