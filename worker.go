package uthread

import (
	"math/rand"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/sahib-singh13/uthread/internal/ctx"
	"github.com/sahib-singh13/uthread/internal/gls"
	"github.com/sahib-singh13/uthread/internal/poller"
	"github.com/sahib-singh13/uthread/internal/queue"
)

// Worker is one OS thread with a private run queue (spec.md §3): its own
// queue mutex (internal/queue.Deque guards that itself), a pointer to the
// currently running task, and its own scheduler context — the dispatch
// loop's saved machine state that a task's context swaps back into.
type Worker struct {
	id       int
	sched    *Scheduler
	queue    *queue.Deque[*Task]
	current  *Task
	schedCtx ctx.Context

	pollBuf []poller.Event
}

func newWorker(id int, s *Scheduler) *Worker {
	return &Worker{
		id:      id,
		sched:   s,
		queue:   &queue.Deque[*Task]{},
		pollBuf: make([]poller.Event, 0, 128),
	}
}

// run is the scheduler loop of spec.md §4.3. It pins the calling goroutine
// to its OS thread for the loop's entire lifetime — the context-switch
// primitive swaps real stack pointers, so this goroutine must never
// migrate to a different OS thread out from under a dispatched task — and
// registers itself in internal/gls so the shared trampoline can recover
// "which worker am I" after a context swap lands it with no arguments.
func (w *Worker) run() {
	runtime.LockOSThread()
	gls.Register(w)
	defer gls.Unregister()

	// Snapshot this goroutine's own real stack bounds into schedCtx before
	// the first dispatch ever retargets them to a task's buffer — see
	// internal/ctx.CaptureCurrent.
	ctx.CaptureCurrent(&w.schedCtx)

	logger.Debug("worker online", zap.Int("worker_id", w.id))

	for w.sched.running.Load() {
		w.drainIO()

		t, ok := w.queue.PopFront()
		if !ok {
			t, ok = w.sched.overflow.PopFront()
		}
		if !ok {
			t, ok = w.steal()
		}

		if ok {
			w.dispatch(t)
			continue
		}

		w.sched.metrics.parked(1)
		time.Sleep(w.sched.cfg.parkInterval)
		w.sched.metrics.parked(-1)
	}

	logger.Debug("worker exiting", zap.Int("worker_id", w.id))
}

// dispatch sets current_task, marks the task RUNNING, and swaps into its
// context — spec.md §4.3 step 4. Control returns here when the task
// yields, blocks, or finishes.
func (w *Worker) dispatch(t *Task) {
	w.current = t
	t.state.Store(int32(StateRunning))
	w.sched.metrics.dispatched()

	ctx.Swap(&w.schedCtx, &t.ctx)

	w.current = nil
}

// steal picks a peer worker uniformly at random, try-locks its queue, and
// pops one task from the back — spec.md §4.3 step 3. A failed try-lock or
// an empty victim is reported as "no task stolen"; the caller does not
// retry that victim this iteration.
func (w *Worker) steal() (*Task, bool) {
	peers := w.sched.workers
	if len(peers) <= 1 {
		return nil, false
	}

	w.sched.metrics.stealAttempted()

	victimIdx := rand.Intn(len(peers) - 1)
	if victimIdx >= w.id {
		victimIdx++
	}
	victim := peers[victimIdx]

	t, _, stole := victim.queue.TryStealBack()
	if !stole {
		return nil, false
	}
	w.sched.metrics.stealSucceeded()
	return t, true
}

// drainIO is spec.md §4.3 step 1: non-destructively try-lock the poller
// mutex; on success, ask for ready events with a zero timeout and push
// each newly-ready task onto this worker's local queue.
func (w *Worker) drainIO() {
	if !w.sched.ioMu.TryLock() {
		return
	}
	defer w.sched.ioMu.Unlock()

	events, err := w.sched.poller.Poll(w.pollBuf[:0])
	if err != nil {
		logger.Error("poller.Poll failed", zap.Error(err))
		return
	}

	if len(events) == 0 {
		return
	}

	// One lock/unlock for the whole drained batch rather than one per
	// event — PushBackLocked/Lock exist for exactly this caller.
	w.queue.Lock()
	defer w.queue.Unlock()

	for _, ev := range events {
		t, ok := w.sched.ioRegistry[ev.Fd]
		if !ok {
			continue
		}
		delete(w.sched.ioRegistry, ev.Fd)
		t.state.Store(int32(StateReady))
		w.queue.PushBackLocked(t)
		w.sched.metrics.blocked(-1)
	}
}
