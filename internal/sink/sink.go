// Package sink implements the Output Sink: a mutex-serialized writer for
// controller-visible text, shared by both front-ends (spec.md §4.3).
package sink

import (
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Sink serializes writes to the controller. Any writer must hold the lock
// across a complete logical message: a prompt plus its preceding text for
// the console, or one XML element for the wire front-end.
type Sink struct {
	mu  sync.Mutex
	w   io.Writer
	log *zerolog.Logger
}

// New creates a Sink writing to w. log is used only for diagnostics about
// write failures, never for controller-visible content.
func New(w io.Writer, log *zerolog.Logger) *Sink {
	return &Sink{w: w, log: log}
}

// WithLock runs fn while holding the sink's mutex, so fn can perform
// several writes (e.g. a block of frame lines) as one atomic message
// (spec.md §8 property 3, "Output atomicity").
func (s *Sink) WithLock(fn func(w io.Writer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.w)
}

// Write writes a single complete message under the lock.
func (s *Sink) Write(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, msg); err != nil && s.log != nil {
		s.log.Warn().Err(err).Msg("sink: write failed")
	}
}

// xmlEscapes is applied in order, so that an `&` introduced by an earlier
// substitution is never re-escaped (spec.md §4.3).
var xmlEscapes = []struct{ from, to string }{
	{"&", "&amp;"},
	{"\"", "&quot;"},
	{"<", "&lt;"},
	{">", "&gt;"},
	{"'", "&apos;"},
}

// EscapeXML replaces &, ", <, >, ' in that order, per spec.md §4.3.
func EscapeXML(s string) string {
	for _, esc := range xmlEscapes {
		s = strings.ReplaceAll(s, esc.from, esc.to)
	}
	return s
}
