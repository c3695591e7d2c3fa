package uthread

import (
	"runtime"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

const (
	// defaultStackSize is the fixed per-task stack size spec.md §4.2
	// mandates be a compile-time constant: 64 KiB.
	defaultStackSize = 64 * 1024

	// defaultParkInterval is the scheduler loop's idle sleep, "on the
	// order of 100 microseconds" per spec.md §4.3 step 5.
	defaultParkInterval = 100 * time.Microsecond

	// defaultOverflowCapacity bounds the global overflow queue (SPEC_FULL
	// §3's backpressure knob over the teacher's unbounded toysched7
	// globalQ).
	defaultOverflowCapacity = 4096

	// localQueueSoftLimit mirrors the teacher's toysched7 Enqueue
	// threshold ("if p.NumG > 5, spill to globalQ"): past this local
	// depth, Create prefers the bounded overflow queue over piling more
	// work onto one worker.
	localQueueSoftLimit = 32
)

// config holds the resolved options for Init. The zero value is never
// used directly — newConfig fills in every default.
type config struct {
	numCores         int
	stackSize        int
	overflowCapacity int64
	parkInterval     time.Duration
	logger           *zap.Logger
	metrics          *metricsSet
}

// Option configures Init. The shape follows the functional-options
// pattern used throughout the pack's own config layers (e.g. the
// eventloop package's options.go).
type Option func(*config)

// WithLogger installs a structured logger: scheduler init and shutdown at
// Info, worker start and exit at Debug, poller failures and task panics at
// Error. Parking and stealing are not logged, and configuration failures
// are returned from Init rather than logged. Default is
// a no-op logger; pass zap.NewNop() explicitly if you want to silence a
// previously-installed logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStackSize overrides the per-task stack size. Must be large enough
// for internal/ctx.MinStackSize; spec.md §9 notes the library installs no
// guard page, so undersizing this manifests as silent corruption, not an
// error.
func WithStackSize(bytes int) Option {
	return func(c *config) { c.stackSize = bytes }
}

// WithOverflowCapacity bounds the global overflow queue Create spills
// into once the calling worker's local deque holds more than
// localQueueSoftLimit tasks. Zero
// disables overflow entirely: Create always pushes to the calling
// worker's local queue.
func WithOverflowCapacity(n int64) Option {
	return func(c *config) { c.overflowCapacity = n }
}

// WithParkInterval overrides the scheduler loop's idle sleep (spec.md
// §4.3 step 5 suggests "on the order of 100 microseconds").
func WithParkInterval(d time.Duration) Option {
	return func(c *config) { c.parkInterval = d }
}

// newConfig resolves numCores per spec.md §6 ("Default: 4") and applies
// opts. numCores <= 0 asks for the container-aware default: this spec
// supplements spec.md's bare default with automaxprocs.Set, grounded on
// automaxprocs appearing in the pack's own production dependency graphs —
// a bare runtime.NumCPU() ignores cgroup CPU quotas the way the pack's
// other services no longer do.
func newConfig(numCores int, opts ...Option) (*config, error) {
	c := &config{
		numCores:         numCores,
		stackSize:        defaultStackSize,
		overflowCapacity: defaultOverflowCapacity,
		parkInterval:     defaultParkInterval,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.numCores <= 0 {
		// Leave GOMAXPROCS adjusted for the process's remaining lifetime —
		// this mirrors how every pack service that imports automaxprocs
		// calls Set once at startup and never undoes it.
		if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
			return nil, err
		}
		c.numCores = resolveDefaultCores()
	}
	if c.numCores <= 0 {
		c.numCores = 4 // spec.md §6's bare fallback if the runtime can't tell us anything better
	}
	if c.stackSize < 4096 {
		return nil, ErrInvalidStackSize
	}
	return c, nil
}

// resolveDefaultCores reads back whatever automaxprocs.Set just resolved
// GOMAXPROCS to.
func resolveDefaultCores() int {
	return runtime.GOMAXPROCS(0)
}
