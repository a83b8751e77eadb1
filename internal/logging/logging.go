// Package logging builds the zerolog loggers used across the binary.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a leveled logger writing to w. pretty selects a human console
// format for terminals; otherwise each event is one JSON line.
// Unknown levels fall back to info.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	if w == nil {
		return zerolog.Nop()
	}
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isColorTerminal(w)}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// fder is satisfied by *os.File.
type fder interface {
	Fd() uintptr
}

// isColorTerminal reports whether w is a file. Colors are left off for buffers and pipes in tests.
func isColorTerminal(w io.Writer) bool {
	_, ok := w.(fder)
	return ok
}
