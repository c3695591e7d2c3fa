package uthread

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/sahib-singh13/uthread/internal/ctx"
	"github.com/sahib-singh13/uthread/internal/poller"
)

// SocketRead is the nonblocking-retry-and-park read of spec.md §4.6:
// attempt the read; on "would block", park the current task on fd and
// retry once redispatched. Returns the byte count (0 on EOF) or the first
// non-"would block" error encountered.
func SocketRead(fd int, buf []byte) (int, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return 0, fmt.Errorf("uthread: socket_read: set nonblocking: %w", err)
	}
	for {
		n, err := unix.Read(fd, buf)
		if err == nil {
			return n, nil
		}
		if err == unix.EINTR {
			continue
		}
		if isWouldBlock(err) {
			if perr := parkOnFD(fd, poller.Readable); perr != nil {
				return 0, perr
			}
			continue
		}
		return 0, err
	}
}

// SocketWrite is socket_write, supplemented from original_source/
// (net_demo.cpp calls out a blocking write as a known shortcut; this
// gives it the same park treatment as SocketRead).
func SocketWrite(fd int, buf []byte) (int, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return 0, fmt.Errorf("uthread: socket_write: set nonblocking: %w", err)
	}
	written := 0
	for written < len(buf) {
		n, err := unix.Write(fd, buf[written:])
		if err == nil {
			written += n
			continue
		}
		if isWouldBlock(err) {
			if perr := parkOnFD(fd, poller.Writable); perr != nil {
				return written, perr
			}
			continue
		}
		return written, err
	}
	return written, nil
}

// SocketAccept is socket_accept, supplemented from original_source/:
// net_demo.cpp's server_task accepts in a blocking loop with an explicit
// comment that a full implementation would wrap accept() the same way
// socket_read is wrapped. This does that, returning a nonblocking,
// close-on-exec client fd.
func SocketAccept(listenFD int) (int, error) {
	if err := unix.SetNonblock(listenFD, true); err != nil {
		return 0, fmt.Errorf("uthread: socket_accept: set nonblocking: %w", err)
	}
	for {
		nfd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			return nfd, nil
		}
		if isWouldBlock(err) {
			if perr := parkOnFD(listenFD, poller.Readable); perr != nil {
				return 0, perr
			}
			continue
		}
		return 0, err
	}
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// parkOnFD implements spec.md §4.6 steps 3-4: register (fd -> current
// task) under the poller mutex, arm the one-shot readiness registration,
// mark the task BLOCKED, and swap into the scheduler context. Returns an
// error instead of parking if fd already has a registered task — the
// open question in spec.md §9 ("concurrent FD parking") is resolved here
// by rejecting the second registration rather than silently widening the
// key to (fd, direction); see DESIGN.md.
func parkOnFD(fd int, interest poller.Interest) error {
	w := currentWorker()
	t := w.current
	if t == nil {
		panicNotATask("socket operation")
	}
	s := w.sched

	s.ioMu.Lock()
	if _, exists := s.ioRegistry[fd]; exists {
		s.ioMu.Unlock()
		return fmt.Errorf("uthread: fd %d already has a task parked on it", fd)
	}
	s.ioRegistry[fd] = t
	if err := s.poller.Register(fd, interest); err != nil {
		delete(s.ioRegistry, fd)
		s.ioMu.Unlock()
		return fmt.Errorf("uthread: poller register: %w", err)
	}
	s.ioMu.Unlock()

	t.state.Store(int32(StateBlocked))
	s.metrics.blocked(1)
	ctx.Swap(&t.ctx, &w.schedCtx)
	return nil
}
