// Package console implements the interactive text front-end: a prompt,
// a small history buffer, and plain-text rendering of engine state
// (spec.md §4.4).
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sdbgio/sdbg/internal/command"
	"github.com/sdbgio/sdbg/internal/dispatcher"
	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/rendezvous"
	"github.com/sdbgio/sdbg/internal/sink"
)

const banner = "Embedded Script Debugger"

const helpText = `
Debugger help
Commands
  b[reak] file:line          set breakpoint to some position
  b[reak]                    list breakpoints
  del[ete] <n>                delete a breakpoint
  c[ont]                     run until program ends or hits a breakpoint
  s[tep]                     step (into calls) one line
  s[tep] o[ut]               step out of the current call
  n[ext]                     go over one line, stepping over calls
  w[here]                    display frames
  f[rame]                    alias for where
  l[ist]                     list program
  up                         move to higher frame
  down                       move to lower frame
  v[ar] g[lobal]             show global variables
  v[ar] l[ocal]              show local variables
  p expression               evaluate expression and print its value
  h[elp]                     print this help
  <everything else>          evaluate
`

// Console is the console front-end. It implements dispatcher.Renderer.
type Console struct {
	engine  engine.Engine
	rend    *rendezvous.Rendezvous
	sink    *sink.Sink
	disp    *dispatcher.Dispatcher
	history *History
	log     zerolog.Logger
}

// New creates a Console writing to out, with a history buffer of the
// given depth (spec.md §6.3 / SPEC_FULL.md §6.3, history=<n>).
func New(eng engine.Engine, rend *rendezvous.Rendezvous, out io.Writer, historyDepth int, log zerolog.Logger) *Console {
	c := &Console{
		engine:  eng,
		rend:    rend,
		sink:    sink.New(out, &log),
		history: NewHistory(historyDepth),
		log:     log,
	}
	c.disp = &dispatcher.Dispatcher{
		Engine:      eng,
		Rend:        rend,
		Render:      c,
		AfterRouted: c.writePrompt,
	}
	return c
}

// Run reads lines from in until EOF or a read error, dispatching each.
func (c *Console) Run(in io.Reader) error {
	c.sink.Write(banner + "\n")
	c.writePrompt()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		cmd := command.ParseConsole(line)
		outcome := c.disp.Execute(cmd)
		if outcome != dispatcher.OutcomeRouted {
			c.writePrompt()
		}
		if outcome == dispatcher.OutcomeHandled || outcome == dispatcher.OutcomeRouted {
			c.history.Record(line)
		}
	}
	return scanner.Err()
}

// History exposes the accepted-line history for callers that want to
// offer line-editing recall (spec.md §4.4).
func (c *Console) History() *History {
	return c.history
}

// OnBreakpointHit is called synchronously by the interpreter thread when
// a registered breakpoint is hit. It prints the break banner, the current
// line, and a prompt, then blocks on the rendezvous.
func (c *Console) OnBreakpointHit(bp engine.BreakPoint) {
	c.sink.WithLock(func(w io.Writer) {
		fmt.Fprintf(w, "\nBreakPoint %d at %s:%d", bp.Index, bp.File, bp.Line)
		c.writeCurrentLine(w)
		io.WriteString(w, "\nsudb (stopped): ")
	})
	c.rend.OnBreakEnter()
}

// OnSuspend is called synchronously by the interpreter thread for an
// explicit suspend not tied to a registered breakpoint (e.g. a completed
// step). It has the same shape as OnBreakpointHit.
func (c *Console) OnSuspend(file string, line uint64) {
	c.sink.WithLock(func(w io.Writer) {
		fmt.Fprintf(w, "\nStopped at %s:%d", file, line)
		c.writeCurrentLine(w)
		io.WriteString(w, "\nsudb (stopped): ")
	})
	c.rend.OnBreakEnter()
}

func (c *Console) writeCurrentLine(w io.Writer) {
	n := c.engine.GetBreakLineNumber()
	lines := c.engine.GetCodeLines(n, n)
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\nLine %d: %s", lines[0].Number, lines[0].Text)
}

// promptText renders "sudb (running): " or "sudb (stopped): ". A
// resumption command leaves the prompt reading "running" until the next
// OnBreakpointHit/OnSuspend call (spec.md §9, Open Questions — resolved).
func (c *Console) promptText() string {
	state := "stopped"
	if !c.engine.IsStopped() || c.rend.MayContinue() {
		state = "running"
	}
	return fmt.Sprintf("\nsudb (%s): ", state)
}

func (c *Console) writePrompt() {
	c.sink.Write(c.promptText())
}

// --- dispatcher.Renderer ---

func (c *Console) BreakpointAdded(bp engine.BreakPoint) {
	c.sink.Write(fmt.Sprintf("\nAdded breakpoint:\n  %d %s:%d\n", bp.Index, bp.File, bp.Line))
}

func (c *Console) BreakpointDeleted(index uint64) {
	// The original console UI has no success message for a delete; only
	// the failure path writes text.
}

func (c *Console) Breakpoints(bps []engine.BreakPoint) {
	if len(bps) == 0 {
		c.sink.Write("\nNo breakpoints\n")
		return
	}
	var sb strings.Builder
	sb.WriteString("\nBreakpoints:\n")
	for _, bp := range bps {
		fmt.Fprintf(&sb, "  %d %s:%d\n", bp.Index, bp.File, bp.Line)
	}
	c.sink.Write(sb.String())
}

func (c *Console) Frames(frames []engine.StackFrame, active uint64) {
	var sb strings.Builder
	sb.WriteString("\n")
	for i, f := range frames {
		prefix := "    "
		if uint64(i) == active {
			prefix = "--> "
		}
		fmt.Fprintf(&sb, "%s%d %s\n", prefix, i+1, f.Name)
	}
	c.sink.Write(sb.String())
}

func (c *Console) Variables(vars []engine.Variable) {
	var sb strings.Builder
	sb.WriteString("\n")
	for _, v := range vars {
		fmt.Fprintf(&sb, "  %s => %s\n", v.Name, v.Value)
	}
	c.sink.Write(sb.String())
}

func (c *Console) EvalResult(v engine.Variable) {
	c.sink.Write("\n" + v.Value + "\n")
}

func (c *Console) CodeLines(lines []engine.CodeLine, current uint64) {
	var sb strings.Builder
	sb.WriteString("\n")
	for _, l := range lines {
		prefix := "  "
		if l.Number == current {
			prefix = "=>"
		}
		fmt.Fprintf(&sb, "%s%4d  %s", prefix, l.Number, l.Text)
	}
	c.sink.Write(sb.String())
}

func (c *Console) Threads() {
	// Thread list is a wire-only command (spec.md §4.2 table); the
	// console grammar never produces KindThreadList.
}

func (c *Console) Help() {
	c.sink.Write(helpText)
}

func (c *Console) Error(kind dispatcher.ErrorKind, cmd command.Command) {
	switch kind {
	case dispatcher.ErrEngineRefusalAdd:
		c.sink.Write("\nCannot add breakpoint\n")
	case dispatcher.ErrEngineRefusalRemove:
		c.sink.Write("\nCannot remove breakpoint\n")
	default: // ErrParse, ErrBusy
		c.sink.Write("\nIllegal command\n")
	}
}
