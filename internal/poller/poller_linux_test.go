//go:build linux

package poller

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpollPollerReadyOnWrite(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	fd := int(r.Fd())
	require.NoError(t, p.Register(fd, Readable))

	events, err := p.Poll(nil)
	require.NoError(t, err)
	require.Empty(t, events, "nothing written yet, nothing should be ready")

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	var got []Event
	for i := 0; i < 1000 && len(got) == 0; i++ {
		events, err = p.Poll(nil)
		require.NoError(t, err)
		got = events
	}
	require.Len(t, got, 1)
	require.Equal(t, fd, got[0].Fd)
	require.True(t, got[0].Readable)
}

func TestEpollPollerOneShot(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	fd := int(r.Fd())
	require.NoError(t, p.Register(fd, Readable))
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	var first []Event
	for i := 0; i < 1000 && len(first) == 0; i++ {
		first, err = p.Poll(nil)
		require.NoError(t, err)
	}
	require.Len(t, first, 1)

	// One-shot: without a fresh Register, a second readable byte produces
	// no further notification.
	_, err = w.Write([]byte("y"))
	require.NoError(t, err)
	second, err := p.Poll(nil)
	require.NoError(t, err)
	require.Empty(t, second)
}

func TestEpollPollerUnregister(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p, err := Open()
	require.NoError(t, err)
	defer p.Close()

	fd := int(r.Fd())
	require.NoError(t, p.Register(fd, Readable))
	require.NoError(t, p.Unregister(fd))
	require.NoError(t, p.Unregister(fd), "double unregister is a no-op")
}
