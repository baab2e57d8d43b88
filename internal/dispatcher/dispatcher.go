// Package dispatcher implements the Command Dispatcher (spec.md §4.2): it
// validates and executes a parsed command.Command, either directly on the
// adapter thread or by routing it through the rendezvous to the
// interpreter thread.
package dispatcher

import (
	"github.com/sdbgio/sdbg/internal/command"
	"github.com/sdbgio/sdbg/internal/engine"
	"github.com/sdbgio/sdbg/internal/rendezvous"
)

// ErrorKind distinguishes the error cases of spec.md §7 so each front-end
// can render or log them according to its own rules.
type ErrorKind int

const (
	ErrParse ErrorKind = iota
	ErrBusy
	ErrEngineRefusalAdd
	ErrEngineRefusalRemove
)

// Outcome tells the caller what Execute did, so it knows whether to render
// a prompt immediately or wait for a later AdapterTask flush.
type Outcome int

const (
	// OutcomeHandled means the command ran to completion on the adapter
	// thread; any reply has already been rendered.
	OutcomeHandled Outcome = iota
	// OutcomeRouted means the command was handed to the interpreter
	// thread; its reply (and any prompt) will be rendered later by the
	// AdapterTask, not by this call.
	OutcomeRouted
	// OutcomeError means Render.Error was already called.
	OutcomeError
	// OutcomeExit means the session is ending.
	OutcomeExit
)

// Renderer is implemented once per front-end to turn dispatcher results
// into controller-visible output (plain text for console, XML for wire).
type Renderer interface {
	BreakpointAdded(bp engine.BreakPoint)
	BreakpointDeleted(index uint64)
	Breakpoints(bps []engine.BreakPoint)
	Frames(frames []engine.StackFrame, active uint64)
	Variables(vars []engine.Variable)
	EvalResult(v engine.Variable)
	CodeLines(lines []engine.CodeLine, current uint64)
	Threads()
	Help()
	Error(kind ErrorKind, cmd command.Command)
}

// Dispatcher drives one session's rendezvous against one engine.
type Dispatcher struct {
	Engine engine.Engine
	Rend   *rendezvous.Rendezvous
	Render Renderer

	// AfterRouted, if set, runs on the interpreter thread immediately
	// after a routed command's reply has been rendered. The console
	// front-end uses this to defer its prompt (spec.md §4.2, "Prompting").
	AfterRouted func()

	// OnExit, if set, runs when an Exit command is executed (wire only).
	OnExit func()
}

// Execute applies cmd and reports what happened.
func (d *Dispatcher) Execute(cmd command.Command) Outcome {
	switch cmd.Kind {
	case command.KindUnknown:
		d.Render.Error(ErrParse, cmd)
		return OutcomeError

	case command.KindListBreakpoints:
		d.Render.Breakpoints(d.Engine.GetBreakPoints())
		return OutcomeHandled

	case command.KindAddBreakpoint:
		bp := cmd.Breakpoint()
		if d.Engine.AddBreakPoint(&bp) {
			d.Render.BreakpointAdded(bp)
		} else {
			d.Render.Error(ErrEngineRefusalAdd, cmd)
			return OutcomeError
		}
		return OutcomeHandled

	case command.KindDeleteBreakpoint:
		if d.Engine.RemoveBreakPoint(cmd.Index) {
			d.Render.BreakpointDeleted(cmd.Index)
		} else {
			d.Render.Error(ErrEngineRefusalRemove, cmd)
			return OutcomeError
		}
		return OutcomeHandled

	case command.KindContinue:
		d.Rend.SignalContinue()
		return OutcomeHandled

	case command.KindStep:
		d.Engine.Step()
		d.Rend.SignalContinue()
		return OutcomeHandled

	case command.KindStepOut:
		d.Engine.StepOut()
		d.Rend.SignalContinue()
		return OutcomeHandled

	case command.KindStepOver:
		d.Engine.StepOver()
		d.Rend.SignalContinue()
		return OutcomeHandled

	case command.KindStart:
		d.Rend.SignalContinue()
		return OutcomeHandled

	case command.KindExit:
		// Release the interpreter first so it can unwind from a current
		// break, then ask the engine to stop (spec.md §4.2).
		d.Rend.SignalContinue()
		d.Engine.Stop()
		if d.OnExit != nil {
			d.OnExit()
		}
		return OutcomeExit

	case command.KindWhere:
		frames := d.Engine.GetStackFrames()
		d.Render.Frames(frames, d.Engine.GetActiveFrameIndex())
		return OutcomeHandled

	case command.KindFrame:
		d.Engine.SetActiveFrameIndex(cmd.Index)
		// Wire sends no acknowledgement for frame <n> (spec.md §9, Open
		// Questions — preserved as-is).
		return OutcomeHandled

	case command.KindFrameUp:
		d.Engine.ShiftActiveFrame(true)
		d.Render.Frames(d.Engine.GetStackFrames(), d.Engine.GetActiveFrameIndex())
		return OutcomeHandled

	case command.KindFrameDown:
		d.Engine.ShiftActiveFrame(false)
		d.Render.Frames(d.Engine.GetStackFrames(), d.Engine.GetActiveFrameIndex())
		return OutcomeHandled

	case command.KindListSource:
		d.Render.CodeLines(d.Engine.GetCodeLines(0, 0), d.Engine.GetBreakLineNumber())
		return OutcomeHandled

	case command.KindThreadList:
		d.Render.Threads()
		return OutcomeHandled

	case command.KindHelp:
		d.Render.Help()
		return OutcomeHandled

	case command.KindVars:
		return d.routeVars(cmd)

	case command.KindEval:
		return d.routeEval(cmd)

	default:
		d.Render.Error(ErrParse, cmd)
		return OutcomeError
	}
}

func (d *Dispatcher) routeVars(cmd command.Command) Outcome {
	var result []engine.Variable
	run := func() {
		switch cmd.Scope {
		case command.ScopeLocal:
			result = d.Engine.GetLocalVariables()
		case command.ScopeGlobal:
			result = d.Engine.GetGlobalVariables()
		case command.ScopeInstance:
			result = d.Engine.GetInstanceVariables(cmd.ObjectID)
		}
		kind := scopeKind(cmd.Scope)
		for i := range result {
			result[i].Kind = kind
		}
	}
	after := func() {
		d.Render.Variables(result)
		if d.AfterRouted != nil {
			d.AfterRouted()
		}
	}
	if err := d.Rend.RequestInterpreterTask(run, after); err != nil {
		d.Render.Error(ErrBusy, cmd)
		return OutcomeError
	}
	return OutcomeRouted
}

func scopeKind(s command.Scope) engine.VariableKind {
	switch s {
	case command.ScopeGlobal:
		return engine.KindGlobal
	case command.ScopeInstance:
		return engine.KindInstance
	default:
		return engine.KindLocal
	}
}

func (d *Dispatcher) routeEval(cmd command.Command) Outcome {
	var result engine.Variable
	run := func() {
		result = d.Engine.EvaluateExpression(cmd.Expression)
		result.Kind = engine.KindWatch
	}
	after := func() {
		d.Render.EvalResult(result)
		if d.AfterRouted != nil {
			d.AfterRouted()
		}
	}
	if err := d.Rend.RequestInterpreterTask(run, after); err != nil {
		d.Render.Error(ErrBusy, cmd)
		return OutcomeError
	}
	return OutcomeRouted
}
