// Package legacy documents, without implementing, the signal-driven
// preemptive variant spec.md §9 calls "an earlier evolutionary stage of
// the repo, superseded by the multi-core/work-stealing design" and
// explicitly excludes from the core.
//
// The original drove the scheduler from a SIGVTALRM handler on a
// per-process interval timer (original_source/example/timer_demo.cpp):
// the handler fired mid-instruction, in an arbitrary stack frame, and
// the repo's own comments admit the approach never got further than that
// demo — no queue-mutation or context-switch logic was ever made
// signal-safe against it.
//
// A reimplementation that wants preemption back has to resolve, not
// just port, three problems the timer variant never did (spec.md §9):
//
//  1. Signal-safety of queue mutation — a SIGVTALRM delivered while a
//     worker holds its own queue mutex, or a peer's via try-lock, must
//     either be masked for that critical section or the mutation must be
//     lock-free; this library uses plain OS mutexes (internal/queue),
//     which are not safe to take from inside a signal handler the
//     interrupted thread itself might already hold.
//  2. Saving the extended machine state a signal frame requires —
//     internal/ctx's Swap only preserves PC, SP, and the callee-saved
//     registers an ordinary call clobbers; a handler invoked
//     asynchronously can interrupt at any point and needs the full
//     ucontext_t-equivalent machine state, not this library's narrow
//     save set.
//  3. The interaction between signal masking and OS mutexes — a handler
//     that tries to take a mutex already held by the thread it
//     interrupted deadlocks immediately.
//
// spec.md §9's own guidance: leave preemption out unless per-worker tick
// scheduling is added that runs in the worker's own scheduler context
// between tasks (i.e. cooperative, checked at dispatch boundaries), not
// from a signal handler. This package intentionally contains no code.
package legacy
