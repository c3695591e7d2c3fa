// Package gls answers one question: "which Worker owns the goroutine that
// is executing right now?"
//
// The context primitive's entry trampoline (internal/ctx) is, by
// construction, a plain package-level func() with no parameters and no
// captured variables — ctx.Make extracts its raw entry address via a
// funcval dereference so a bare register/stack swap can jump straight to
// it (see internal/ctx's funcPC). That means the trampoline cannot be
// handed its Worker as an argument or a closure upvalue; it has to look
// it up.
//
// The original this is grounded on solves the equivalent problem with a
// C++ thread_local pointer: each OS thread sets `my_worker` exactly once,
// at worker start, and every later read — including reads from deep
// inside a context that has had its stack swapped out from under it —
// sees that same thread's value. Go has no OS-thread-local storage, but
// every worker's scheduler loop runs in a goroutine that is pinned to one
// OS thread for its entire life via runtime.LockOSThread and never
// returns to the Go scheduler across a swap (the swap is a raw SP/register
// exchange, invisible to the Go runtime). That makes the owning
// goroutine's id a stable stand-in for "which OS thread": registering
// once per worker, keyed by goroutine id, reproduces thread_local's
// semantics.
package gls

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

var (
	mu          sync.RWMutex
	byGoroutine = make(map[int64]any)
)

// ID returns the id of the calling goroutine, parsed out of the header
// line runtime.Stack always writes first ("goroutine 37 [running]:").
// This is the standard, if unglamorous, way to get a goroutine id without
// runtime-internal linkname tricks: the format has been stable since Go's
// earliest releases and every goroutine-id package in the ecosystem reads
// it the same way.
func ID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(buf[:n])
}

func parseGoroutineID(b []byte) int64 {
	const prefix = "goroutine "
	if len(b) < len(prefix) || string(b[:len(prefix)]) != prefix {
		panic("gls: unexpected runtime.Stack header: " + string(b))
	}
	b = b[len(prefix):]
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("gls: could not parse goroutine id: %v", err))
	}
	return id
}

// Register binds v to the calling goroutine. Call this exactly once, at
// the top of a worker's scheduler loop, after runtime.LockOSThread — not
// on every context switch.
func Register(v any) {
	mu.Lock()
	byGoroutine[ID()] = v
	mu.Unlock()
}

// Unregister drops the calling goroutine's binding. A worker's scheduler
// loop calls it on exit so a reused goroutine id (however unlikely) can't
// resurrect a stale Worker.
func Unregister() {
	mu.Lock()
	delete(byGoroutine, ID())
	mu.Unlock()
}

// Current returns the value Register bound to the calling goroutine. It
// panics if nothing was registered — the trampoline running outside a
// worker's pinned goroutine is a protocol violation, not a recoverable
// condition (spec.md §7: "protocol misuse ... implementations may
// assert").
func Current() any {
	mu.RLock()
	v, ok := byGoroutine[ID()]
	mu.RUnlock()
	if !ok {
		panic("gls: no value registered for the current goroutine")
	}
	return v
}
