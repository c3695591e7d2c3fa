package uthread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "READY", StateReady.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "BLOCKED", StateBlocked.String())
	assert.Equal(t, "FINISHED", StateFinished.String())
}

// TestContextSwitchTransparency is testable property 5 from spec.md §8: a task's local
// automatic variables must survive any number of suspensions.
func TestContextSwitchTransparency(t *testing.T) {
	initForTest(t, 1)

	var observed []int
	_, err := Create(func() {
		local := 0
		for i := 0; i < 50; i++ {
			local++
			Yield()
			observed = append(observed, local)
		}
		Shutdown()
	})
	require.NoError(t, err)

	RunSchedulerLoop()

	require.Len(t, observed, 50)
	for i, v := range observed {
		assert.Equal(t, i+1, v)
	}
}

// TestTaskPanicDoesNotEscapeTrampoline exercises spec.md §7: a panicking
// task entry must not crash the worker; the scheduler keeps running and
// marks the task FINISHED.
func TestTaskPanicDoesNotEscapeTrampoline(t *testing.T) {
	initForTest(t, 1)

	var afterPanicRan bool
	_, err := Create(func() {
		panic("boom")
	})
	require.NoError(t, err)

	_, err = Create(func() {
		afterPanicRan = true
		Shutdown()
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		RunSchedulerLoop()
	})
	assert.True(t, afterPanicRan)
}

func TestExitDoesNotReenqueue(t *testing.T) {
	initForTest(t, 1)

	var afterExitRan bool
	_, err := Create(func() {
		Exit()
		t.Fatal("unreachable: Exit must not return")
	})
	require.NoError(t, err)

	_, err = Create(func() {
		afterExitRan = true
		Shutdown()
	})
	require.NoError(t, err)

	RunSchedulerLoop()
	assert.True(t, afterExitRan)
}
