// Package command defines the abstract Command produced by parsing one
// controller input line (spec.md §3, "Command"), and the grammar used to
// parse it for each front-end (spec.md §4.2).
package command

import "github.com/sdbgio/sdbg/internal/engine"

// Scope selects which set of variables a Vars command inspects.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeGlobal
	ScopeInstance
)

// Kind tags which variant a Command holds.
type Kind int

const (
	KindListBreakpoints Kind = iota
	KindAddBreakpoint
	KindDeleteBreakpoint
	KindContinue
	KindStep
	KindStepOut
	KindStepOver
	KindWhere
	KindFrame
	KindFrameUp
	KindFrameDown
	KindListSource
	KindVars
	KindEval
	KindThreadList
	KindStart
	KindExit
	KindHelp
	KindUnknown
)

// Command is the parsed, front-end-agnostic representation of one input
// line. Only the fields relevant to Kind are populated.
type Command struct {
	Kind Kind

	// AddBreakpoint
	File string
	Line uint64

	// DeleteBreakpoint / Frame
	Index uint64

	// Vars
	Scope    Scope
	ObjectID uint64

	// Eval
	Expression string

	// Raw is the original trimmed input line, used for history and logs.
	Raw string
}

// IsInterpreterRouted reports whether cmd must run on the interpreter
// thread (spec.md §4.2, "Interpreter-routed"): all Vars and Eval commands.
func (c Command) IsInterpreterRouted() bool {
	return c.Kind == KindVars || c.Kind == KindEval
}

// IsResumption reports whether cmd releases the interpreter
// (spec.md §4.2, "Resumption"): c, s, n, finish, start.
func (c Command) IsResumption() bool {
	switch c.Kind {
	case KindContinue, KindStep, KindStepOut, KindStepOver, KindStart:
		return true
	default:
		return false
	}
}

// breakpointFrom builds an engine.BreakPoint from an AddBreakpoint Command.
// An empty File means "use the engine's notion of the current file"
// (spec.md §4.2, "An add-breakpoint line with only <line> ... uses the
// current break's file").
func (c Command) breakpointFrom() engine.BreakPoint {
	return engine.BreakPoint{
		File:    c.File,
		Line:    c.Line,
		Enabled: true,
	}
}

// Breakpoint exposes breakpointFrom for dispatcher use.
func (c Command) Breakpoint() engine.BreakPoint {
	return c.breakpointFrom()
}
