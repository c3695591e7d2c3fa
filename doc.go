// Package uthread implements a user-space M:N scheduler: a small,
// fixed set of OS worker threads (each worker's goroutine locked to its
// own OS thread; the threads are not bound to particular CPU cores), each multiplexing
// many cooperative user tasks over a private run queue with work
// stealing. A task carries its own stack and is switched via a raw
// machine-context primitive (internal/ctx), not a goroutine — Create
// spawns one, Yield and blocking operations (Mutex, SocketRead/Write/
// Accept) suspend it, and the scheduler loop in RunSchedulerLoop decides
// what runs next.
//
// There is one scheduler per process. Init must be called first; the
// calling goroutine becomes worker #0 and must go on to call
// RunSchedulerLoop, which returns only after Shutdown and every worker
// has been joined.
package uthread
