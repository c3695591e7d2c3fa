package uthread

import "errors"

// Configuration errors are fatal at Init — the process cannot run the
// scheduler at all (spec.md §7).
var (
	// ErrInvalidCoreCount is returned by Create when no scheduler has been
	// initialized. Init itself does not return it: a zero or negative core
	// count resolves to a default worker count instead.
	ErrInvalidCoreCount = errors.New("uthread: invalid core count")

	// ErrPollerUnavailable wraps a failure to construct the readiness
	// poller (internal/poller.Open) during Init.
	ErrPollerUnavailable = errors.New("uthread: readiness poller unavailable")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("uthread: already initialized")

	// ErrInvalidStackSize is returned when a configured per-task stack
	// size is smaller than internal/ctx.MinStackSize.
	ErrInvalidStackSize = errors.New("uthread: invalid stack size")
)

// ErrWouldBlock names the "would block" condition of spec.md §4.6. No
// function in this package returns or checks it: the park-and-retry loop
// in io.go tests for unix.EAGAIN/EWOULDBLOCK directly, and
// SocketRead/Write/Accept never return a "would block" error to the caller.
var ErrWouldBlock = errors.New("uthread: operation would block")

// ErrOverflowFull names a full global overflow queue (internal/queue.Overflow,
// see SPEC_FULL.md §3; capacity set by WithOverflowCapacity). No function in
// this package returns it: when the overflow queue is full, Create pushes
// the task onto the calling worker's local queue instead.
var ErrOverflowFull = errors.New("uthread: overflow queue at capacity")

// protocol misuse panics. spec.md §7: "implementations may assert."

func panicNotATask(op string) {
	panic("uthread: " + op + " called outside task context")
}

func panicUnlockUnlocked() {
	panic("uthread: unlock of unlocked mutex")
}

func panicUnlockNotOwner() {
	panic("uthread: unlock by non-owner")
}
