// Package rendezvous implements the two-thread handoff between the
// interpreter thread (which calls OnBreakEnter synchronously from inside
// the engine's on_break callback) and the adapter thread (which calls
// SignalContinue and RequestInterpreterTask from the command dispatcher).
//
// It is the Go rendering of spec.md §3's RendezvousState and §4.1's
// Rendezvous: a sync.Mutex/sync.Cond pair guarding mayContinue plus one
// pending (InterpreterTask, AdapterTask) pair, never two independently
// nilable slots.
package rendezvous

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrBusy is returned by RequestInterpreterTask when a task is already
// pending, running, or awaiting its follow-up flush.
var ErrBusy = errors.New("rendezvous: interpreter task already pending")

// TaskState is the interpreter-task state machine of spec.md §4.6.
type TaskState int

const (
	Idle TaskState = iota
	Pending
	Running
	Completed
)

func (s TaskState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// InterpreterTask is a one-shot action the interpreter thread must run at
// its next wake, before it re-blocks or returns. It runs on the
// interpreter thread.
type InterpreterTask func()

// AdapterTask is the follow-up posted after an InterpreterTask completes.
// Per spec.md's Open Question resolution (SPEC_FULL.md §4.1), it runs
// synchronously on the interpreter thread immediately after its paired
// InterpreterTask, relying on the Output Sink's own mutex for thread
// safety rather than a second handoff.
type AdapterTask func()

// task pairs an InterpreterTask with its AdapterTask atomically, so the
// two can never desynchronize (spec.md §9, "Follow-up callbacks").
type task struct {
	run   InterpreterTask
	after AdapterTask
}

// Rendezvous coordinates exactly one interpreter thread and one adapter
// thread for the lifetime of a session.
type Rendezvous struct {
	mu          sync.Mutex
	cond        *sync.Cond
	mayContinue bool
	state       TaskState
	pending     *task
}

// New creates a Rendezvous ready for a new session. The interpreter is not
// yet blocked; the first call to OnBreakEnter starts the rendezvous.
func New() *Rendezvous {
	r := &Rendezvous{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// OnBreakEnter is called by the interpreter thread when the engine reaches
// a stopped state. It resets mayContinue to false, then loops: if a task
// is pending it runs it (still on the interpreter thread), clears it, runs
// the paired AdapterTask, and waits again. It returns only once
// mayContinue is true, and the final wake that resumes execution never
// carries a task — Completed→Idle always happens before the wait that
// could observe mayContinue true.
func (r *Rendezvous) OnBreakEnter() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mayContinue = false
	for {
		if r.pending != nil {
			t := r.pending
			r.pending = nil
			r.state = Running

			r.mu.Unlock()
			t.run()
			r.mu.Lock()

			r.state = Completed
			r.mu.Unlock()
			t.after()
			r.mu.Lock()

			r.state = Idle
			continue
		}
		if r.mayContinue {
			return
		}
		r.cond.Wait()
	}
}

// SignalContinue is called by the dispatcher to release the interpreter.
// It sets mayContinue and notifies under the mutex, so the interpreter is
// guaranteed to unblock within one condvar signal (spec.md §8 property 1).
func (r *Rendezvous) SignalContinue() {
	r.mu.Lock()
	r.mayContinue = true
	r.mu.Unlock()
	r.cond.Signal()
}

// RequestInterpreterTask stores run and after as the single pending task
// pair and notifies the interpreter thread. It fails with ErrBusy if a
// task is already pending, running, or has completed but not yet flushed —
// i.e. unless the task state is Idle.
func (r *Rendezvous) RequestInterpreterTask(run InterpreterTask, after AdapterTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return ErrBusy
	}
	r.pending = &task{run: run, after: after}
	r.state = Pending
	r.cond.Signal()
	return nil
}

// TaskState reports the current interpreter-task state. The dispatcher does
// not consult it: resumption commands are not gated on Idle, and a task
// still pending when SignalContinue arrives is run by OnBreakEnter before it
// returns.
func (r *Rendezvous) TaskState() TaskState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// MayContinue reports whether the interpreter has most recently been told
// it may resume. Used only for the console front-end's prompt rendering
// (spec.md §4.2, "Prompting").
func (r *Rendezvous) MayContinue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mayContinue
}
