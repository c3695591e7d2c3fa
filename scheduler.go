package uthread

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sahib-singh13/uthread/internal/ctx"
	"github.com/sahib-singh13/uthread/internal/gls"
	"github.com/sahib-singh13/uthread/internal/poller"
	"github.com/sahib-singh13/uthread/internal/queue"
)

// Scheduler is the process-wide state spec.md §3 calls "Global state": the
// fixed worker list, the monotonic task-id generator, the running flag,
// and the readiness-poll handle. There is exactly one live Scheduler per
// process — Init constructs it, Shutdown tears down the running flag, and
// the package-level functions below (Create, Yield, ...) all operate
// against the single instance Init installed.
type Scheduler struct {
	cfg *config

	workers []*Worker
	wg      sync.WaitGroup

	nextTaskID atomic.Int64
	running    atomic.Bool

	poller     poller.Poller
	ioMu       sync.Mutex
	ioRegistry map[int]*Task

	overflow *queue.Overflow[*Task]

	metrics *metricsSet
}

var (
	initMu sync.Mutex
	sched  *Scheduler
)

// Init configures and spawns numCores-1 additional OS worker threads —
// spec.md §6. numCores <= 0 resolves to a container-aware default (see
// config.go). The calling OS thread becomes worker #0 but does not yet
// enter dispatch; call RunSchedulerLoop for that.
func Init(numCores int, opts ...Option) error {
	initMu.Lock()
	defer initMu.Unlock()

	if sched != nil {
		return ErrAlreadyInitialized
	}

	cfg, err := newConfig(numCores, opts...)
	if err != nil {
		return err
	}
	setLogger(cfg.logger)

	p, err := poller.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPollerUnavailable, err)
	}

	s := &Scheduler{
		cfg:        cfg,
		poller:     p,
		ioRegistry: make(map[int]*Task),
		overflow:   queue.NewOverflow[*Task](cfg.overflowCapacity),
		metrics:    cfg.metrics,
	}
	s.running.Store(true)

	s.workers = make([]*Worker, cfg.numCores)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s)
	}

	// Worker #0 runs on the calling OS thread — pin it now so that any
	// Create call between Init and RunSchedulerLoop (spec.md §4.4: "the
	// caller of init before run_scheduler_loop, where the caller
	// transiently owns worker #0's queue") resolves through internal/gls
	// exactly like a task would.
	runtime.LockOSThread()
	gls.Register(s.workers[0])

	for i := 1; i < len(s.workers); i++ {
		w := s.workers[i]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			w.run()
		}()
	}

	logger.Info("scheduler initialized", zap.Int("workers", len(s.workers)))
	sched = s
	return nil
}

// Create spawns a task and enqueues it on the calling worker's local
// queue — spec.md §4.4. Tolerates being called from a task (the new task
// lands on the current task's worker) or from the caller of Init before
// RunSchedulerLoop (worker #0, per the registration Init performs).
func Create(entry func()) (*Task, error) {
	if sched == nil {
		return nil, ErrInvalidCoreCount
	}
	w := currentWorker()

	id := sched.nextTaskID.Add(1) - 1
	t := newTask(id, sched.cfg.stackSize, entry)
	sched.metrics.created()

	if w.queue.Len() > localQueueSoftLimit && sched.overflow.TryAdmit(t) {
		return t, nil
	}
	w.queue.PushBack(t)
	return t, nil
}

// Yield re-enqueues the current task on the current worker's local queue
// in READY, then swaps into the worker's scheduler context — spec.md
// §4.4. Control resumes at the instruction after this call once the task
// is redispatched.
func Yield() {
	w := currentWorker()
	t := w.current
	if t == nil {
		panicNotATask("Yield")
	}

	t.state.Store(int32(StateReady))
	w.queue.PushBack(t)

	ctx.Swap(&t.ctx, &w.schedCtx)
}

// Exit terminates the current task: a one-way jump into the worker's
// scheduler context without re-enqueuing. The scheduler releases the TCB
// on its next loop iteration. Normal return from a task's entry function
// reaches the same effect via the trampoline, not this call.
func Exit() {
	w := currentWorker()
	t := w.current
	if t == nil {
		panicNotATask("Exit")
	}
	t.state.Store(int32(StateFinished))
	ctx.Set(&w.schedCtx)
}

// RunSchedulerLoop turns the calling OS thread into a dispatching worker
// (worker #0) and returns only after Shutdown has been called and every
// peer worker has been joined — spec.md §4.3's termination clause.
func RunSchedulerLoop() {
	if sched == nil {
		panic("uthread: RunSchedulerLoop called before Init")
	}
	sched.workers[0].run()
	sched.wg.Wait()
	logger.Info("scheduler shut down, all workers joined")
}

// Shutdown sets the global termination flag. May be called from any task
// or from outside the scheduler entirely; idempotent — spec.md §8's
// "Idempotent shutdown" property.
func Shutdown() {
	if sched == nil {
		return
	}
	sched.running.Store(false)
}

// reset tears down the package-level scheduler handle. Test-only: it lets
// successive tests call Init again in the same process. Never exported —
// a real process calls Init exactly once.
func reset() {
	initMu.Lock()
	defer initMu.Unlock()
	sched = nil
}
