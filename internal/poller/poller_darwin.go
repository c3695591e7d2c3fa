//go:build darwin

package poller

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD/Darwin backend. kqueue has no single "either
// direction" filter, so Register issues one EVFILT_READ and/or
// EVFILT_WRITE change per call, each carrying EV_ONESHOT so the kernel
// forgets it after the first delivery — the same one-shot contract the
// Linux EPOLLONESHOT backend provides.
type kqueuePoller struct {
	kq int

	mu   sync.Mutex
	regs map[int]Interest
}

// Open creates the platform poller.
func Open() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("poller: kqueue: %w", err)
	}
	return &kqueuePoller{kq: kq, regs: make(map[int]Interest)}, nil
}

func (p *kqueuePoller) Register(fd int, interest Interest) error {
	var changes []unix.Kevent_t
	if interest&Readable != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ONESHOT,
		})
	}
	if interest&Writable != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ONESHOT,
		})
	}
	if len(changes) == 0 {
		return nil
	}

	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("poller: kevent register: %w", err)
	}

	p.mu.Lock()
	p.regs[fd] = interest
	p.mu.Unlock()
	return nil
}

func (p *kqueuePoller) Unregister(fd int) error {
	p.mu.Lock()
	interest, ok := p.regs[fd]
	delete(p.regs, fd)
	p.mu.Unlock()
	if !ok {
		return nil
	}

	var changes []unix.Kevent_t
	if interest&Readable != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}
	if interest&Writable != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("poller: kevent unregister: %w", err)
	}
	return nil
}

func (p *kqueuePoller) Poll(buf []Event) ([]Event, error) {
	var raw [128]unix.Kevent_t
	zero := unix.Timespec{}
	n, err := unix.Kevent(p.kq, nil, raw[:], &zero)
	if err != nil {
		if err == unix.EINTR {
			return buf[:0], nil
		}
		return buf[:0], fmt.Errorf("poller: kevent poll: %w", err)
	}

	buf = buf[:0]
	p.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		delete(p.regs, fd)
		buf = append(buf, Event{
			Fd:       fd,
			Readable: raw[i].Filter == unix.EVFILT_READ,
			Writable: raw[i].Filter == unix.EVFILT_WRITE,
		})
	}
	p.mu.Unlock()
	return buf, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
