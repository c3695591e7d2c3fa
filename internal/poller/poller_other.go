//go:build !linux && !darwin

package poller

import "errors"

// Open fails on hosts outside this spec's POSIX-family/epoll-or-kqueue
// scope (spec.md §1: "cross-process portability beyond a POSIX-family
// host providing nonblocking FDs and an edge-or-level readiness poll" is a
// Non-goal).
func Open() (Poller, error) {
	return nil, errors.New("poller: no readiness backend for this GOOS (linux and darwin only)")
}
