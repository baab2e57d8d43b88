// Package sdbg composes the rendezvous, the two front-ends, and a host's
// engine.Engine into the single object a host application embeds. It plays
// the role the teacher's repl.go plays for its protocol: the thing callers
// actually construct.
package sdbg

import (
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sdbgio/sdbg/frontend/console"
	"github.com/sdbgio/sdbg/frontend/wire"
	"github.com/sdbgio/sdbg/internal/config"
	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/rendezvous"
)

// Session ties one engine.Engine to one Rendezvous and dispatches engine
// break callbacks to whichever front-end is active (spec.md §2,
// "Composition": "the embedding host owns exactly one adapter instance per
// debug session and calls into it only from the interpreter thread").
type Session struct {
	eng  engine.Engine
	rend *rendezvous.Rendezvous
	cfg  config.Config
	log  zerolog.Logger

	console *console.Console
	wire    *wire.Server
	wireC   *wire.Connection
}

// New builds a Session from the engine and the host's free-form argument
// string (spec.md §6.3). No front-end is attached yet; call WithConsole or
// ListenWire to pick one, exactly as the original lets the host choose
// in-process UI vs. the RDIP socket at startup.
func New(eng engine.Engine, args string) *Session {
	cfg := config.Parse(args)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.Level).With().Timestamp().Logger()
	return &Session{
		eng:  eng,
		rend: rendezvous.New(),
		cfg:  cfg,
		log:  log,
	}
}

// WithConsole attaches the interactive text front-end writing to out, and
// returns it so the caller can Run it on its own goroutine. The in argument
// is not used here; the input reader is the one passed to Console.Run.
func (s *Session) WithConsole(in io.Reader, out io.Writer) *console.Console {
	s.console = console.New(s.eng, s.rend, out, s.cfg.History, s.log)
	return s.console
}

// ListenWire opens the remote-IDE listener on the configured port (spec.md
// §4.5, §6.3) and blocks accepting and serving exactly one connection.
// Once the client has connected, and before the reactor runs, the Session
// stores the Connection so OnBreakpointHit/OnSuspend can notify it.
func (s *Session) ListenWire(stop <-chan struct{}) error {
	addr := ":" + strconv.Itoa(s.cfg.Port)
	s.wire = wire.NewServer(addr, s.eng, s.rend, s.log)
	return s.wire.Serve(stop, func(c *wire.Connection) { s.wireC = c })
}

// OnBreakpointHit is the entry point the host calls synchronously, from the
// interpreter thread, when the engine's on_break fires for a registered
// breakpoint (spec.md §2). It fans out to whichever front-end is attached
// and blocks until the adapter releases the interpreter.
func (s *Session) OnBreakpointHit(bp engine.BreakPoint) {
	switch {
	case s.console != nil:
		s.console.OnBreakpointHit(bp)
	case s.wireC != nil:
		s.wireC.NotifyBreakpoint(bp)
		s.rend.OnBreakEnter()
	default:
		s.rend.OnBreakEnter()
	}
}

// OnSuspend is the entry point for a suspend not tied to a registered
// breakpoint (e.g. a completed step landing on a new line).
func (s *Session) OnSuspend(file string, line uint64) {
	switch {
	case s.console != nil:
		s.console.OnSuspend(file, line)
	case s.wireC != nil:
		s.wireC.NotifySuspend(file, line)
		s.rend.OnBreakEnter()
	default:
		s.rend.OnBreakEnter()
	}
}

// Rendezvous exposes the session's Rendezvous for tests and for a host that
// wants to inspect TaskState directly.
func (s *Session) Rendezvous() *rendezvous.Rendezvous {
	return s.rend
}
