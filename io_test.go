//go:build linux

package uthread

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSocketEchoRoundTrip is S4 from spec.md §8: a task parks on
// SocketRead, is woken by the poller once data arrives, echoes it back
// with SocketWrite (which itself may park), while an independent
// goroutine outside the scheduler drives the other end of the pair. No
// data is lost and no wakeup is missed.
func TestSocketEchoRoundTrip(t *testing.T) {
	initForTest(t, 2)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	serverFD, clientFD := fds[0], fds[1]
	defer unix.Close(clientFD)

	const msg = "ping"
	var serverErr error

	_, err = Create(func() {
		buf := make([]byte, 64)
		n, rerr := SocketRead(serverFD, buf)
		if rerr != nil {
			serverErr = rerr
			unix.Close(serverFD)
			Shutdown()
			return
		}
		if _, werr := SocketWrite(serverFD, buf[:n]); werr != nil {
			serverErr = werr
		}
		unix.Close(serverFD)
		Shutdown()
	})
	require.NoError(t, err)

	done := make(chan struct{})
	var clientErr error
	var reply string

	go func() {
		defer close(done)
		if _, werr := unix.Write(clientFD, []byte(msg)); werr != nil {
			clientErr = werr
			return
		}
		buf := make([]byte, 64)
		n, rerr := unix.Read(clientFD, buf)
		if rerr != nil {
			clientErr = rerr
			return
		}
		reply = string(buf[:n])
	}()

	RunSchedulerLoop()
	<-done

	require.NoError(t, serverErr)
	require.NoError(t, clientErr)
	assert.Equal(t, msg, reply)
}

// TestParkOnFDRejectsConcurrentRegistration exercises the resolution of
// spec.md §9's open question on concurrent FD parking: a second task
// attempting to park on an fd that is already registered gets an error
// back rather than silently replacing or queueing behind the first.
func TestParkOnFDRejectsConcurrentRegistration(t *testing.T) {
	initForTest(t, 1)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[1])
	fd := fds[0]
	defer unix.Close(fd)

	var firstErr, secondErr error

	_, err = Create(func() {
		buf := make([]byte, 8)
		_, firstErr = SocketRead(fd, buf)
		Shutdown()
	})
	require.NoError(t, err)

	_, err = Create(func() {
		Yield() // let the first task register and park on fd first
		buf := make([]byte, 8)
		_, secondErr = SocketRead(fd, buf)
	})
	require.NoError(t, err)

	go func() {
		unix.Write(fds[1], []byte("x"))
	}()

	RunSchedulerLoop()

	assert.NoError(t, firstErr)
	assert.Error(t, secondErr)
}
