package queue

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Overflow is the process-wide spillover queue the teacher's toysched7
// reached for ("Overflow: Enqueued G%d to globalQ (P%d full)") whenever a
// worker's local deque passed a depth threshold, but never bounded. Here it
// is bounded by a weighted semaphore so a runaway producer applies
// backpressure (TryAdmit fails) instead of growing the overflow queue
// without limit.
type Overflow[T any] struct {
	mu    sync.Mutex
	items []T
	admit *semaphore.Weighted
}

// NewOverflow creates an overflow queue admitting at most capacity items
// before TryAdmit starts reporting false.
func NewOverflow[T any](capacity int64) *Overflow[T] {
	return &Overflow[T]{admit: semaphore.NewWeighted(capacity)}
}

// TryAdmit attempts to reserve a slot and push v. Returns false, without
// pushing, if the overflow queue is at capacity.
func (o *Overflow[T]) TryAdmit(v T) bool {
	if !o.admit.TryAcquire(1) {
		return false
	}
	o.mu.Lock()
	o.items = append(o.items, v)
	o.mu.Unlock()
	return true
}

// PopFront removes and returns the oldest overflowed item, releasing its
// admission slot.
func (o *Overflow[T]) PopFront() (v T, ok bool) {
	o.mu.Lock()
	if len(o.items) == 0 {
		o.mu.Unlock()
		return v, false
	}
	v = o.items[0]
	o.items[0] = *new(T)
	o.items = o.items[1:]
	o.mu.Unlock()
	o.admit.Release(1)
	return v, true
}

// Len reports the current overflow depth.
func (o *Overflow[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
