// Package queue implements the run-queue discipline of spec.md §4.3: FIFO
// at the front for the owning worker, LIFO at the back for a thief —
// "the steal-from-back convention preserves locality for the victim and
// yields the oldest-remaining stealable task to the thief."
package queue

import "sync"

// Deque is a worker's local run queue. The owning worker pops from the
// front and pushes to the back; a peer worker may only remove from the
// back, and only after a successful TryLock/steal — see TryStealBack.
type Deque[T any] struct {
	mu    sync.Mutex
	items []T
}

// PushBack appends v — used both for newly created tasks (spec.md §4.4
// create) and for tasks re-enqueued on yield.
func (d *Deque[T]) PushBack(v T) {
	d.mu.Lock()
	d.items = append(d.items, v)
	d.mu.Unlock()
}

// PopFront removes and returns the oldest item, under the owning worker's
// own queue lock. Only the owning worker calls this.
func (d *Deque[T]) PopFront() (v T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return v, false
	}
	v = d.items[0]
	d.items[0] = *new(T)
	d.items = d.items[1:]
	return v, true
}

// TryStealBack attempts a non-blocking steal from the back of the queue.
// A failed try-lock is reported as locked==false, stole==false — the caller
// must treat that as "no task stolen this iteration" and not retry this
// victim (spec.md §4.3 step 3).
func (d *Deque[T]) TryStealBack() (v T, locked, stole bool) {
	if !d.mu.TryLock() {
		return v, false, false
	}
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return v, true, false
	}
	last := len(d.items) - 1
	v = d.items[last]
	d.items[last] = *new(T)
	d.items = d.items[:last]
	return v, true, true
}

// Len reports the current queue depth. Best-effort: only meaningful as a
// hint (e.g. for overflow admission), since it can change the instant
// after the lock is released.
func (d *Deque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Lock/Unlock expose the queue's own mutex directly for a caller (the
// worker's I/O drain step, worker.go's drainIO) that pushes a whole batch
// of newly-ready tasks and wants one acquire for the batch instead of one
// per push.
func (d *Deque[T]) Lock()   { d.mu.Lock() }
func (d *Deque[T]) Unlock() { d.mu.Unlock() }

// PushBackLocked is PushBack without taking the lock — the caller must
// already hold it (via Lock).
func (d *Deque[T]) PushBackLocked(v T) {
	d.items = append(d.items, v)
}
