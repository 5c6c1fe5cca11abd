//go:build linux

package reactor

import (
	"testing"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPollerReportsReadable(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	r, w := newPipe(t)
	require.NoError(t, p.Add(r, api.EventRead))

	events := make([]api.Event, 8)
	n, err := p.Wait(events, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	n, err = p.Wait(events, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, r, events[0].Fd)
	assert.NotZero(t, events[0].Mask&api.EventRead)
}

func TestPollerOneShotNeedsRearm(t *testing.T) {
	p, err := NewPoller(8)
	require.NoError(t, err)
	defer p.Close()

	r, w := newPipe(t)
	require.NoError(t, p.Add(r, api.EventRead|api.EventOneShot))
	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	events := make([]api.Event, 8)
	n, err := p.Wait(events, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Data is still unread, but the descriptor is disarmed.
	n, err = p.Wait(events, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, p.Mod(r, api.EventRead|api.EventOneShot))
	n, err = p.Wait(events, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPollerWake(t *testing.T) {
	p, err := NewPoller(4)
	require.NoError(t, err)
	defer p.Close()

	done := make(chan int, 1)
	go func() {
		n, _ := p.Wait(make([]api.Event, 4), -1)
		done <- n
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Wake())

	select {
	case n := <-done:
		assert.Zero(t, n)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait was not interrupted by Wake")
	}
}

func TestPollerDelAndClose(t *testing.T) {
	p, err := NewPoller(4)
	require.NoError(t, err)

	r, _ := newPipe(t)
	require.NoError(t, p.Add(r, api.EventRead))
	require.NoError(t, p.Del(r))
	assert.Error(t, p.Del(r))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Add(r, api.EventRead), ErrPollerClosed)
	_, err = p.Wait(make([]api.Event, 1), 0)
	assert.ErrorIs(t, err, ErrPollerClosed)
}
