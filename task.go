package uthread

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sahib-singh13/uthread/internal/ctx"
	"github.com/sahib-singh13/uthread/internal/gls"
)

// State is a task's position in spec.md §4.7's state machine.
type State int32

const (
	StateReady State = iota
	StateRunning
	StateBlocked
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateBlocked:
		return "BLOCKED"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Task is the TCB of spec.md §3: identity, stack, saved machine context,
// state, and entry function. No priority field — SPEC_FULL.md §4 follows
// spec.md §9's redesign flag and drops the original's unused
// `priority int // Kept for future use` rather than carry a field nothing
// reads.
type Task struct {
	id    int64
	state atomic.Int32
	stack []byte
	ctx   ctx.Context
	entry func()
}

// State reads the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// ID returns the task's monotonic identifier.
func (t *Task) ID() int64 { return t.id }

// newTask allocates a TCB with its own stack and a fresh context bound to
// the shared trampoline (spec.md §4.2).
func newTask(id int64, stackSize int, entry func()) *Task {
	t := &Task{
		id:    id,
		stack: make([]byte, stackSize),
		entry: entry,
	}
	t.state.Store(int32(StateReady))
	ctx.Make(&t.ctx, t.stack)
	return t
}

// trampoline is the shared entry point every fresh Task context resumes
// into — a plain, non-capturing package-level function, because
// internal/ctx.Make extracts its raw entry address via a funcval
// dereference (see internal/ctx's funcPC) and jumps straight to it with a
// bare register/stack restore, not a normal Go call.
//
// It cannot receive the task as a parameter or a closure upvalue, so it
// recovers "which worker, which task" through internal/gls — the
// goroutine-local stand-in for the original's `thread_local Worker*
// my_worker` (src/uthread.cpp).
func trampoline() {
	w := currentWorker()
	t := w.current

	func() {
		defer func() {
			if r := recover(); r != nil {
				// spec.md §7: "No error escapes the trampoline ... Recovery
				// from a task-level fault is not attempted."
				logger.Error("task entry panicked",
					zap.Int64("task_id", t.id),
					zap.Any("recover", r),
				)
			}
		}()
		t.entry()
	}()

	t.state.Store(int32(StateFinished))
	// One-way jump back to the scheduler context — the trampoline must
	// never return; the dispatch loop regains control only through this
	// explicit Set.
	ctx.Set(&w.schedCtx)
}

func init() {
	ctx.SetEntryTrampoline(trampoline)
}

// currentWorker resolves the Worker owning the calling goroutine. Panics
// (per spec.md §7's "implementations may assert" for protocol misuse) if
// called from a goroutine that never registered — i.e. anything other
// than a worker's own scheduler-loop goroutine.
func currentWorker() *Worker {
	v := gls.Current()
	w, ok := v.(*Worker)
	if !ok {
		panic("uthread: gls registry holds a non-Worker value")
	}
	return w
}
