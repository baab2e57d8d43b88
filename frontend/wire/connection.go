package wire

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sdbgio/sdbg/internal/command"
	"github.com/sdbgio/sdbg/internal/dispatcher"
	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/rendezvous"
	"github.com/sdbgio/sdbg/internal/sink"
)

// Connection is the single-threaded cooperative I/O reactor for one wire
// client (spec.md §4.5 / §5): one goroutine runs Connection.run, selecting
// over decoded command lines and posted closures, so that break
// notifications posted from the interpreter thread are never interleaved
// mid-command with the read loop.
type Connection struct {
	conn net.Conn
	eng  engine.Engine
	rend *rendezvous.Rendezvous
	sink *sink.Sink
	disp *dispatcher.Dispatcher
	log  zerolog.Logger

	postCh chan func()
	exitCh chan struct{}
}

type readResult struct {
	line string
	err  error
}

func newConnection(nc net.Conn, eng engine.Engine, rend *rendezvous.Rendezvous, log zerolog.Logger) *Connection {
	log = log.With().Str("session", uuid.NewString()).Logger()
	c := &Connection{
		conn:   nc,
		eng:    eng,
		rend:   rend,
		log:    log,
		postCh: make(chan func(), 8),
		exitCh: make(chan struct{}),
	}
	c.sink = sink.New(nc, &log)
	c.disp = &dispatcher.Dispatcher{
		Engine: eng,
		Rend:   rend,
		Render: c,
		OnExit: c.onExit,
	}
	return c
}

func (c *Connection) onExit() {
	close(c.exitCh)
}

// Post enqueues fn to run on the connection's reactor goroutine. This is
// the Go rendering of boost::asio's io_service::post, used by the
// interpreter thread to hand off break notifications without a second
// mutex-protected queue beyond the Output Sink's own (spec.md §4.5).
func (c *Connection) Post(fn func()) {
	select {
	case c.postCh <- fn:
	case <-c.exitCh:
	}
}

// run drives the reactor until the connection closes, exit is requested,
// or stop is closed.
func (c *Connection) run(stop <-chan struct{}) error {
	reads := make(chan readResult)
	go c.readLoop(reads)

	for {
		select {
		case <-stop:
			return nil
		case <-c.exitCh:
			return nil
		case res := <-reads:
			if res.line != "" {
				c.dispatchFrame(res.line)
			}
			if res.err != nil {
				// Release the interpreter so a transport failure never
				// deadlocks the host (spec.md §7, TransportError).
				c.rend.SignalContinue()
				return errors.Wrap(res.err, "wire: connection closed")
			}
		case fn := <-c.postCh:
			fn()
		}
	}
}

func (c *Connection) readLoop(out chan<- readResult) {
	r := bufio.NewReader(c.conn)
	for {
		line, err := r.ReadString('\n')
		out <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// dispatchFrame splits one read on ';' and dispatches each command in
// order (spec.md §4.2: "a single read may contain several commands joined
// by ';'; each is trimmed and dispatched in order").
func (c *Connection) dispatchFrame(raw string) {
	raw = strings.TrimRight(raw, "\r\n")
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c.log.Info().Str("cmd", part).Msg("command from IDE")
		cmd := command.ParseWire(part)
		if cmd.Kind == command.KindAddBreakpoint {
			// Backslash-to-forward-slash file normalization is wire-only
			// (spec.md §4.5).
			cmd.File = strings.ReplaceAll(cmd.File, "\\", "/")
		}
		if c.disp.Execute(cmd) == dispatcher.OutcomeExit {
			return
		}
	}
}

// --- dispatcher.Renderer ---

func (c *Connection) BreakpointAdded(bp engine.BreakPoint) {
	c.sink.Write(fmt.Sprintf("<breakpointAdded no=\"%d\" location=\"%s:%d\"/>\n", bp.Index, bp.File, bp.Line))
}

func (c *Connection) BreakpointDeleted(index uint64) {
	c.sink.Write(fmt.Sprintf("<breakpointDeleted no=\"%d\" />\n", index))
}

// Breakpoints renders the registered breakpoints. The original source
// never actually wires a bare "b"/"break" command on the wire transport
// (its regex requires a trailing line number); this format is defined by
// analogy to the frames/variables/threads envelopes for a consistent
// wire surface (see DESIGN.md).
func (c *Connection) Breakpoints(bps []engine.BreakPoint) {
	var sb strings.Builder
	sb.WriteString("<breakpoints>\n")
	for _, bp := range bps {
		fmt.Fprintf(&sb, "<breakpoint no=\"%d\" file=\"%s\" line=\"%d\"/>", bp.Index, sink.EscapeXML(bp.File), bp.Line)
	}
	sb.WriteString("</breakpoints>\n")
	c.sink.Write(sb.String())
}

func (c *Connection) Frames(frames []engine.StackFrame, active uint64) {
	var sb strings.Builder
	sb.WriteString("<frames>\n")
	for i, f := range frames {
		file := sink.EscapeXML(f.File)
		if uint64(i) == active {
			fmt.Fprintf(&sb, "<frame no=\"%d\" file=\"%s\" line=\"%d\" current=\"yes\"/>", i, file, f.Line)
		} else {
			fmt.Fprintf(&sb, "<frame no=\"%d\" file=\"%s\" line=\"%d\"/>", i, file, f.Line)
		}
	}
	sb.WriteString("</frames>\n")
	c.sink.Write(sb.String())
}

func (c *Connection) Variables(vars []engine.Variable) {
	var sb strings.Builder
	sb.WriteString("<variables>\n")
	for _, v := range vars {
		writeVariable(&sb, v)
	}
	sb.WriteString("</variables>\n")
	c.sink.Write(sb.String())
}

func (c *Connection) EvalResult(v engine.Variable) {
	var sb strings.Builder
	sb.WriteString("<variables>\n")
	writeVariable(&sb, v)
	sb.WriteString("</variables>\n")
	c.sink.Write(sb.String())
}

func writeVariable(sb *strings.Builder, v engine.Variable) {
	fmt.Fprintf(sb, "<variable name=\"%s\" kind=\"%s\" value=\"%s\" type=\"%s\" hasChildren=\"%t\" objectId=\"%x\"/>\n",
		sink.EscapeXML(v.Name), v.Kind, sink.EscapeXML(v.Value), v.Type, v.HasChildren, v.ObjectID)
}

func (c *Connection) CodeLines(lines []engine.CodeLine, current uint64) {
	// List source has no defined wire response format (spec.md §4.2
	// lists "l[ist]" without a (wire) tag, but §4.5's response formats
	// do not include one); the original RDIP.cpp never wires it either.
	// No-op: see DESIGN.md.
}

func (c *Connection) Threads() {
	c.sink.Write("<threads>\n<thread id=\"1\" status=\"run\"/>\n</threads>\n")
}

func (c *Connection) Help() {
	// Help is console-only (spec.md §4.2 table); the wire grammar never
	// produces KindHelp.
}

func (c *Connection) Error(kind dispatcher.ErrorKind, cmd command.Command) {
	switch kind {
	case dispatcher.ErrParse:
		c.log.Warn().Str("cmd", cmd.Raw).Msg("unknown command")
	case dispatcher.ErrBusy:
		c.log.Warn().Str("cmd", cmd.Raw).Msg("rejected: interpreter task already pending")
	case dispatcher.ErrEngineRefusalAdd:
		c.log.Warn().Msg("adding breakpoint failed")
	case dispatcher.ErrEngineRefusalRemove:
		c.log.Warn().Msg("breakpoint could not be deleted")
	}
}

// NotifyBreakpoint posts the <breakpoint/> hit notification onto the
// reactor (spec.md §4.5). Called by the interpreter thread.
func (c *Connection) NotifyBreakpoint(bp engine.BreakPoint) {
	c.Post(func() {
		c.sink.Write(fmt.Sprintf("<breakpoint file=\"%s\" line=\"%d\" threadId=\"1\"/>\n", bp.File, bp.Line))
	})
}

// NotifySuspend posts the <suspended/> notification onto the reactor
// (spec.md §4.5). Called by the interpreter thread.
func (c *Connection) NotifySuspend(file string, line uint64) {
	c.Post(func() {
		c.sink.Write(fmt.Sprintf("<suspended file=\"%s\" line=\"%d\" threadId=\"1\" frames=\"1\"/>\n", sink.EscapeXML(file), line))
	})
}
