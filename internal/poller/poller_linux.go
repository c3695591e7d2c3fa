//go:build linux

package poller

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux backend, grounded on the epoll wrapping pattern
// used by the pack's `eventloop` package (poller_linux.go): a single epoll
// fd, EPOLLONESHOT on every registration so a readiness event is delivered
// exactly once, and a preallocated event buffer for zero-timeout drains.
type epollPoller struct {
	epfd int

	mu   sync.Mutex
	regs map[int]struct{} // fds currently registered, for Unregister bookkeeping
}

// Open creates the platform poller.
func Open() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("poller: epoll_create1: %w", err)
	}
	return &epollPoller{epfd: epfd, regs: make(map[int]struct{})}, nil
}

func (p *epollPoller) Register(fd int, interest Interest) error {
	var events uint32 = unix.EPOLLONESHOT
	if interest&Readable != 0 {
		events |= unix.EPOLLIN
	}
	if interest&Writable != 0 {
		events |= unix.EPOLLOUT
	}

	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}

	p.mu.Lock()
	_, already := p.regs[fd]
	op := unix.EPOLL_CTL_ADD
	if already {
		op = unix.EPOLL_CTL_MOD
	}
	p.regs[fd] = struct{}{}
	p.mu.Unlock()

	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("poller: epoll_ctl: %w", err)
	}
	return nil
}

func (p *epollPoller) Unregister(fd int) error {
	p.mu.Lock()
	_, ok := p.regs[fd]
	delete(p.regs, fd)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("poller: epoll_ctl del: %w", err)
	}
	return nil
}

func (p *epollPoller) Poll(buf []Event) ([]Event, error) {
	var raw [128]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, raw[:], 0)
	if err != nil {
		if err == unix.EINTR {
			return buf[:0], nil
		}
		return buf[:0], fmt.Errorf("poller: epoll_wait: %w", err)
	}

	buf = buf[:0]
	p.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		// EPOLLONESHOT only disables fd inside the epoll set; remove it so a
		// later Register can add it again.
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		delete(p.regs, fd)
		buf = append(buf, Event{
			Fd:       fd,
			Readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			Writable: raw[i].Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	p.mu.Unlock()
	return buf, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
