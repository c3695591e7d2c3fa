// Package ctx provides the machine-context primitive: save/restore of a
// bare stack-and-registers execution state between two call frames. It is
// the low-level boundary the rest of the scheduler is built on — see
// spec.md §4.1 ("Context primitive").
//
// Correctness here means preserving, at minimum, the program counter, the
// stack pointer, and the callee-saved registers across a Swap. A raw SP
// swap is not enough on its own: the worker's goroutine never stops being
// the same live g, so every ordinary function entered after the swap
// still runs the compiler's stack-split check against that g's own
// stackguard0, and the garbage collector scans that g's stack using its
// own stack.lo/stack.hi — both computed for the worker's real goroutine
// stack, not whichever task buffer is actually live. Swap/Set retarget
// those three words (see runtimeg.go) to the buffer they are about to
// resume, mirroring what runtime.gogo does on an ordinary goroutine
// switch, so the runtime's own bookkeeping always agrees with the stack
// that is actually under SP.
package ctx

import "unsafe"

// Context is an opaque saved machine state: a stack pointer plus whatever
// the architecture-specific swtch stub pushed onto that stack to resume
// execution, plus the [lo, hi) bounds of the stack that state lives on.
// The zero value is not valid; use Make (or, for a context representing a
// goroutine's own pre-existing stack, CaptureCurrent).
type Context struct {
	sp uintptr
	lo uintptr
	hi uintptr
}

// entryTrampoline is the function every freshly Made context resumes into.
// It is architecture-independent: by the time it runs, the assembly stub
// has already restored a valid Go stack (SP points inside the buffer given
// to Make) so it is safe to call arbitrary Go code, including one that
// never returns.
var entryTrampoline func()

// SetEntryTrampoline installs the function every Make'd context jumps to on
// first resume. The scheduler installs its own trampoline (task.go) exactly
// once during package init; tests may override it to probe Make/Swap in
// isolation.
func SetEntryTrampoline(fn func()) { entryTrampoline = fn }

// Make initializes ctxt so that the first Swap/Set into it begins executing
// SetEntryTrampoline's function at the top of stack, with a clean frame.
// stack must be at least MinStackSize bytes and must not be moved or
// reclaimed while ctxt can still be switched into.
func Make(ctxt *Context, stack []byte) {
	if len(stack) < MinStackSize {
		panic("ctx: stack too small")
	}
	if entryTrampoline == nil {
		panic("ctx: no entry trampoline installed")
	}
	ctxt.lo = uintptr(unsafe.Pointer(&stack[0]))
	ctxt.hi = stackTop(stack)
	makeContext(ctxt, stack, entryTrampoline)
}

// Swap saves the caller's machine state into from and resumes the state
// previously saved in to. When some later Swap resumes `from`, execution
// continues at the point right after this call. Safe to call from any
// frame depth; must not be called from within a deferred panic-recovery
// unwind (the spec's "must not unwind across a context swap" invariant —
// see spec.md §9).
//
// Before the raw register swap, this retargets the calling goroutine's
// own stack bounds (stack.lo, stack.hi, stackguard0) to to's, after first
// recording the caller's current bounds into from — so that a later Swap
// or Set that resumes from puts those bounds back. See runtimeg.go.
//go:nosplit
func Swap(from, to *Context) {
	g := currentGStack()
	from.lo, from.hi = g.lo, g.hi
	g.lo, g.hi, g.stackguard0 = to.lo, to.hi, to.lo
	swtch(from, to)
}

// Set resumes to without saving the caller anywhere. Used for one-way
// jumps: the task trampoline's normal-return path and Exit both never come
// back, so there is nothing worth saving.
//go:nosplit
func Set(to *Context) {
	g := currentGStack()
	g.lo, g.hi, g.stackguard0 = to.lo, to.hi, to.lo
	setctx(to)
}

// CaptureCurrent records the calling goroutine's own, real stack bounds
// into ctxt. A worker calls this once, at the top of its dispatch loop,
// before the first Swap ever targets its scheduler context — otherwise
// the first Swap back into it would have nothing to restore and the
// worker's own goroutine would keep running with a task's stack bounds
// installed.
//go:nosplit
func CaptureCurrent(ctxt *Context) {
	g := currentGStack()
	ctxt.lo, ctxt.hi = g.lo, g.hi
}

// StackPointer exposes the raw stack pointer for diagnostics (stack-high-
// water-mark sampling); not part of the switching protocol.
func (c *Context) StackPointer() uintptr { return c.sp }

// stackTop returns a pointer to one past the last writable byte of stack,
// the address makeContext builds the initial frame down from (stacks grow
// down on every architecture this package supports).
func stackTop(stack []byte) uintptr {
	return uintptr(unsafe.Pointer(&stack[len(stack)-1])) + 1
}
