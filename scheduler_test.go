package uthread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initForTest calls Init and registers reset (scheduler.go) as cleanup,
// clearing the package-level singleton so the next test can Init again.
// Shutting down and joining the workers is left to each test's own
// Shutdown and RunSchedulerLoop calls.
func initForTest(t *testing.T, numCores int, opts ...Option) {
	t.Helper()
	require.NoError(t, Init(numCores, opts...))
	t.Cleanup(reset)
}

// TestPingPongContextSwitchCount is a scaled-down S1: two tasks
// yield-looping on a single worker, the second calling Shutdown at the
// end. The full scenario spec.md §8 describes uses 1,000,000 yields per
// task; this uses a smaller count to keep the suite fast while still
// exercising the same switch-count invariant (2N switches for N yields
// per task, since Dispatch->Yield->Dispatch is one switch each way).
func TestPingPongContextSwitchCount(t *testing.T) {
	initForTest(t, 1)

	const switches = 20_000
	var count atomic.Int64

	_, err := Create(func() {
		for i := 0; i < switches; i++ {
			count.Add(1)
			Yield()
		}
	})
	require.NoError(t, err)

	_, err = Create(func() {
		for i := 0; i < switches; i++ {
			count.Add(1)
			Yield()
		}
		Shutdown()
	})
	require.NoError(t, err)

	RunSchedulerLoop()

	assert.InDelta(t, switches*2, count.Load(), 2)
}

// TestCreateFromBeforeRunSchedulerLoop exercises spec.md §4.4's tolerance
// for Create being called by the caller of Init, before RunSchedulerLoop
// is ever entered — the caller transiently owns worker #0's queue.
func TestCreateFromBeforeRunSchedulerLoop(t *testing.T) {
	initForTest(t, 1)

	var ran atomic.Bool
	_, err := Create(func() {
		ran.Store(true)
		Shutdown()
	})
	require.NoError(t, err)

	RunSchedulerLoop()
	assert.True(t, ran.Load())
}

// TestWorkStealingSmoke is S5: 16 CPU-bound-ish tasks spawned only on
// worker #0 across 4 workers; every other worker must execute at least
// one.
func TestWorkStealingSmoke(t *testing.T) {
	initForTest(t, 4)

	var executedBy [4]atomic.Bool
	var remaining atomic.Int32
	remaining.Store(16)

	_, err := Create(func() {
		for i := 0; i < 16; i++ {
			_, err := Create(spinTask(&executedBy, &remaining))
			require.NoError(t, err)
		}
	})
	require.NoError(t, err)

	RunSchedulerLoop()

	for i := 1; i < 4; i++ {
		assert.True(t, executedBy[i].Load(), "worker %d never ran a stolen task", i)
	}
}

func spinTask(executedBy *[4]atomic.Bool, remaining *atomic.Int32) func() {
	return func() {
		w := currentWorker()
		executedBy[w.id].Store(true)

		deadline := time.Now().Add(20 * time.Millisecond)
		for time.Now().Before(deadline) {
			Yield()
		}

		if remaining.Add(-1) == 0 {
			Shutdown()
		}
	}
}

// TestCooperativeShutdownMidYieldLoop is S6: Shutdown is called while
// other tasks are mid yield-loop; every in-flight task must still reach
// its next suspension point and RunSchedulerLoop must return cleanly.
// Once Shutdown has run, no further task is dispatched, so the yield
// loops are not run to completion.
func TestCooperativeShutdownMidYieldLoop(t *testing.T) {
	initForTest(t, 1)

	var reachedSuspension atomic.Int32

	for i := 0; i < 3; i++ {
		_, err := Create(func() {
			for j := 0; j < 5; j++ {
				if j == 0 {
					reachedSuspension.Add(1)
				}
				Yield()
			}
		})
		require.NoError(t, err)
	}

	_, err := Create(func() {
		Shutdown()
	})
	require.NoError(t, err)

	RunSchedulerLoop()

	assert.Equal(t, int32(3), reachedSuspension.Load())
}

func TestInitTwiceFails(t *testing.T) {
	initForTest(t, 1)
	err := Init(1)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestYieldOutsideTaskPanics(t *testing.T) {
	initForTest(t, 1)

	assert.Panics(t, func() {
		_, _ = Create(func() {})
		Yield() // called from the test goroutine, not a task
	})
	Shutdown()
	RunSchedulerLoop()
}
