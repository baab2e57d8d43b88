package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdbgio/sdbg/internal/command"
	"github.com/sdbgio/sdbg/internal/dispatcher"
	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/enginetest"
	"github.com/sdbgio/sdbg/internal/rendezvous"
)

func newTestConsole(out *bytes.Buffer) (*Console, *enginetest.Engine) {
	eng := enginetest.New()
	rend := rendezvous.New()
	log := zerolog.Nop()
	return New(eng, rend, out, 3, log), eng
}

func TestRunPrintsBannerAndPrompt(t *testing.T) {
	var out bytes.Buffer
	c, _ := newTestConsole(&out)

	if err := c.Run(strings.NewReader("exit\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, banner) {
		t.Error("missing banner")
	}
	if !strings.Contains(got, "sudb (stopped):") {
		t.Errorf("missing initial stopped prompt, got %q", got)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	var out bytes.Buffer
	c, _ := newTestConsole(&out)

	in := "b main.rb:1\nb\n"
	if err := c.Run(strings.NewReader(in)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	h := c.History()
	if h.Len() != 2 {
		t.Fatalf("history length = %d, want 2", h.Len())
	}
	if h.At(0) != "b main.rb:1" {
		t.Errorf("history[0] = %q", h.At(0))
	}
}

func TestOnBreakpointHitWritesBannerAndBlocks(t *testing.T) {
	var out bytes.Buffer
	c, _ := newTestConsole(&out)

	done := make(chan struct{})
	go func() {
		c.OnBreakpointHit(engine.BreakPoint{Index: 1, File: "a.rb", Line: 3})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("OnBreakpointHit returned before the interpreter was released")
	default:
	}

	c.disp.Rend.SignalContinue()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnBreakpointHit never returned after SignalContinue")
	}

	if !strings.Contains(out.String(), "BreakPoint") {
		t.Errorf("missing break banner, got %q", out.String())
	}
}

// TestConsoleScenarioS1AddAndList exercises spec.md §8 scenario S1: adding
// a breakpoint then listing it prints "Added breakpoint:" with the new
// entry, then later "Breakpoints:" with the same entry.
func TestConsoleScenarioS1AddAndList(t *testing.T) {
	var out bytes.Buffer
	c, _ := newTestConsole(&out)

	in := "b /a/b.rb:42\nb\n"
	if err := c.Run(strings.NewReader(in)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	addedAt := strings.Index(got, "Added breakpoint:\n  1 /a/b.rb:42")
	if addedAt < 0 {
		t.Fatalf("missing add confirmation, got %q", got)
	}
	listedAt := strings.Index(got, "Breakpoints:\n  1 /a/b.rb:42")
	if listedAt < 0 {
		t.Fatalf("missing breakpoint listing, got %q", got)
	}
	if listedAt < addedAt {
		t.Errorf("listing (%d) appeared before the add confirmation (%d)", listedAt, addedAt)
	}
}

// TestConsoleScenarioS2EvalAtBreak exercises spec.md §8 scenario S2: at a
// break, "p 1+1" prints the stop banner and current line first (with the
// prompt held), then, once the interpreter-thread task flushes, the eval
// result and a fresh prompt.
func TestConsoleScenarioS2EvalAtBreak(t *testing.T) {
	var out bytes.Buffer
	eng := enginetest.New()
	eng.Eval = func(expr string) engine.Variable { return engine.Variable{Value: "2"} }
	rend := rendezvous.New()
	c := New(eng, rend, &out, 3, zerolog.Nop())
	flushed := make(chan struct{})
	prompt := c.disp.AfterRouted
	c.disp.AfterRouted = func() {
		prompt()
		close(flushed)
	}

	done := make(chan struct{})
	go func() {
		c.OnSuspend("/x.rb", 7)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	beforeEval := out.String()
	if !strings.Contains(beforeEval, "Stopped at /x.rb:7") {
		t.Fatalf("missing stop banner, got %q", beforeEval)
	}
	if strings.Contains(beforeEval, "\n2\n") {
		t.Fatal("eval result appeared before the eval command was even sent")
	}

	outcome := c.disp.Execute(command.ParseConsole("p 1+1"))
	if outcome != dispatcher.OutcomeRouted {
		t.Fatalf("outcome = %v, want OutcomeRouted", outcome)
	}

	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("eval task never flushed")
	}

	got := out.String()
	if !strings.Contains(got, "\n2\n") {
		t.Errorf("missing eval result, got %q", got)
	}

	c.rend.SignalContinue()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnSuspend never returned after SignalContinue")
	}
}
