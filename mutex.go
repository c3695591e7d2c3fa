package uthread

import (
	"sync"

	"github.com/sahib-singh13/uthread/internal/ctx"
)

// Mutex is the task-level blocking mutex of spec.md §4.5: its waiters are
// parked tasks, not spinning OS threads. Unlock transfers ownership
// directly to the head waiter rather than clearing the lock and letting
// every waiter race for it.
//
// mu guards only locked/owner/waiters — spec.md §4.5 calls for "a short
// OS-level mutex ... because the critical sections are strictly O(1)";
// the scheduler's own queue-locking discipline is suspended only for the
// duration of that critical section, never held across a context swap.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	owner   *Task
	waiters []*Task
}

// Lock acquires m. If m is free, it is claimed immediately. Otherwise the
// caller is marked BLOCKED, appended to the FIFO wait list, and swapped
// into the worker's scheduler context; when redispatched, the caller is
// already the owner (see Unlock).
func (m *Mutex) Lock() {
	w := currentWorker()
	t := w.current
	if t == nil {
		panicNotATask("Mutex.Lock")
	}

	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.owner = t
		m.mu.Unlock()
		return
	}

	t.state.Store(int32(StateBlocked))
	m.waiters = append(m.waiters, t)
	m.mu.Unlock()

	w.sched.metrics.blocked(1)
	ctx.Swap(&t.ctx, &w.schedCtx)
}

// Unlock releases m. If the wait list is non-empty, ownership transfers
// directly to the head waiter (locked stays true, the waiter is marked
// READY and pushed onto the unlocking worker's local queue); otherwise m
// becomes free. Unlocking a mutex the caller does not hold, or one that
// is not locked at all, is a protocol error — spec.md §7 — and panics.
func (m *Mutex) Unlock() {
	w := currentWorker()
	t := w.current
	if t == nil {
		panicNotATask("Mutex.Unlock")
	}

	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panicUnlockUnlocked()
	}
	if m.owner != t {
		m.mu.Unlock()
		panicUnlockNotOwner()
	}

	if len(m.waiters) > 0 {
		next := m.waiters[0]
		m.waiters[0] = nil
		m.waiters = m.waiters[1:]
		m.owner = next
		m.mu.Unlock()

		next.state.Store(int32(StateReady))
		w.sched.metrics.blocked(-1)
		w.queue.PushBack(next)
		return
	}

	m.locked = false
	m.owner = nil
	m.mu.Unlock()
}
