// Package enginetest provides an in-memory engine.Engine used to exercise
// the dispatcher and both front-ends without a real scripting host.
//
// It is grounded on the same breakpoint-sequence-counter idiom as
// hitzhangjie/godbg's target.Breakpoint: an atomic.Uint64 handing out
// unique indices, rather than a mutex-guarded int. Here each Engine holds
// its own counters, so every new Engine numbers breakpoints from 1.
package enginetest

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/sdbgio/sdbg/internal/engine"
)

// Engine is a fake debug core. Its exported fields let a test script the
// stack, variables, and source it should answer with; its method calls
// record into Calls so a test can assert what the dispatcher invoked.
type Engine struct {
	Locals    []engine.Variable
	Globals   []engine.Variable
	Instances map[uint64][]engine.Variable
	Eval      func(expr string) engine.Variable
	Frames    []engine.StackFrame
	Source    []engine.CodeLine
	BreakLine uint64

	stopped bool
	active  uint64
	bps     []engine.BreakPoint
	nextBP  atomic.Uint64
	nextObj atomic.Uint64

	Calls []string

	// RefuseAdd and RefuseRemove let a test exercise the engine-refusal
	// error paths (spec.md §7).
	RefuseAdd    bool
	RefuseRemove bool
}

// New returns an Engine starting in the stopped state, as a debug core is
// whenever on_break has fired and the adapter has not yet resumed it.
func New() *Engine {
	return &Engine{
		Instances: map[uint64][]engine.Variable{},
		stopped:   true,
	}
}

func (e *Engine) record(call string) {
	e.Calls = append(e.Calls, call)
}

func (e *Engine) AddBreakPoint(bp *engine.BreakPoint) bool {
	e.record("AddBreakPoint")
	if e.RefuseAdd {
		return false
	}
	bp.Index = e.nextBP.Add(1)
	e.bps = append(e.bps, *bp)
	return true
}

func (e *Engine) RemoveBreakPoint(index uint64) bool {
	e.record("RemoveBreakPoint")
	if e.RefuseRemove {
		return false
	}
	for i, bp := range e.bps {
		if bp.Index == index {
			e.bps = append(e.bps[:i], e.bps[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Engine) GetBreakPoints() []engine.BreakPoint {
	e.record("GetBreakPoints")
	return e.bps
}

func (e *Engine) IsStopped() bool {
	return e.stopped
}

// SetStopped lets a test move the fake engine between running and stopped,
// mirroring what OnBreakEnter/SignalContinue would otherwise drive.
func (e *Engine) SetStopped(v bool) {
	e.stopped = v
}

func (e *Engine) Step() {
	e.record("Step")
}

func (e *Engine) StepOut() {
	e.record("StepOut")
}

func (e *Engine) StepOver() {
	e.record("StepOver")
}

func (e *Engine) Stop() {
	e.record("Stop")
}

func (e *Engine) GetStackFrames() []engine.StackFrame {
	e.record("GetStackFrames")
	return e.Frames
}

func (e *Engine) GetActiveFrameIndex() uint64 {
	return e.active
}

func (e *Engine) SetActiveFrameIndex(i uint64) {
	e.active = i
}

func (e *Engine) ShiftActiveFrame(up bool) {
	if up {
		if e.active > 0 {
			e.active--
		}
		return
	}
	if e.active+1 < uint64(len(e.Frames)) {
		e.active++
	}
}

func (e *Engine) GetLocalVariables() []engine.Variable {
	e.record("GetLocalVariables")
	return e.Locals
}

func (e *Engine) GetGlobalVariables() []engine.Variable {
	e.record("GetGlobalVariables")
	return e.Globals
}

func (e *Engine) GetInstanceVariables(objectID uint64) []engine.Variable {
	e.record("GetInstanceVariables")
	return e.Instances[objectID]
}

func (e *Engine) EvaluateExpression(expr string) engine.Variable {
	e.record("EvaluateExpression")
	if e.Eval != nil {
		return e.Eval(expr)
	}
	return engine.Variable{Name: expr, Value: fmt.Sprintf("<%s>", expr)}
}

func (e *Engine) GetBreakLineNumber() uint64 {
	return e.BreakLine
}

func (e *Engine) GetCodeLines(from, to uint64) []engine.CodeLine {
	e.record("GetCodeLines")
	if from == 0 && to == 0 {
		return e.Source
	}
	var out []engine.CodeLine
	for _, l := range e.Source {
		if l.Number >= from && l.Number <= to {
			out = append(out, l)
		}
	}
	return out
}

// NextObjectID hands out a unique fake object id for tests that need to
// populate Instances with a key in advance.
func (e *Engine) NextObjectID() uint64 {
	return e.nextObj.Add(1)
}
