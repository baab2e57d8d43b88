// Package wire implements the remote IDE front-end: a TCP listener that
// accepts exactly one connection and speaks the newline-delimited,
// semicolon-joinable, XML-over-TCP protocol of spec.md §4.5/§6.2.
package wire

import (
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/rendezvous"
)

// Server listens for the single client connection a session permits
// (spec.md §1, "a connection is single-client and session-scoped").
type Server struct {
	addr string
	eng  engine.Engine
	rend *rendezvous.Rendezvous
	log  zerolog.Logger
}

// NewServer creates a Server bound to addr (e.g. ":1234").
func NewServer(addr string, eng engine.Engine, rend *rendezvous.Rendezvous, log zerolog.Logger) *Server {
	return &Server{addr: addr, eng: eng, rend: rend, log: log}
}

// Serve opens the listening socket, accepts exactly one connection, and
// runs its reactor until the connection closes, the client sends exit, or
// stop is closed. onConnect, if non-nil, is invoked with the accepted
// Connection before the reactor starts, so the caller can route engine
// break notifications to NotifyBreakpoint/NotifySuspend.
func (s *Server) Serve(stop <-chan struct{}, onConnect func(*Connection)) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "wire: listen on %s", s.addr)
	}
	defer listener.Close()

	go func() {
		<-stop
		listener.Close()
	}()

	nc, err := listener.Accept()
	if err != nil {
		select {
		case <-stop:
			return nil
		default:
			return errors.Wrap(err, "wire: accept")
		}
	}
	defer nc.Close()

	conn := newConnection(nc, s.eng, s.rend, s.log)
	if onConnect != nil {
		onConnect(conn)
	}
	return conn.run(stop)
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.addr
}
