package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_RunsTasks(t *testing.T) {
	e := NewExecutor(4, 64)
	defer e.Close()

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, e.Submit(func() bool {
			defer wg.Done()
			n.Add(1)
			return true
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(50), n.Load())
	assert.Equal(t, 4, e.NumWorkers())
}

func TestExecutor_QueueFull(t *testing.T) {
	e := NewExecutor(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, e.Submit(func() bool {
		close(started)
		<-block
		return true
	}))
	<-started
	require.NoError(t, e.Submit(func() bool { return true }))

	err := e.Submit(func() bool { return true })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(1), e.Stats()["rejected"])

	close(block)
	e.Close()
	assert.Equal(t, int64(2), e.Stats()["completed"])
}

func TestExecutor_PanicCountsAsFailure(t *testing.T) {
	e := NewExecutor(1, 4)
	done := make(chan struct{})

	require.NoError(t, e.Submit(func() bool { panic("boom") }))
	require.NoError(t, e.Submit(func() bool { return false }))
	require.NoError(t, e.Submit(func() bool { close(done); return true }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive panic")
	}
	e.Close()
	stats := e.Stats()
	assert.Equal(t, int64(2), stats["failed"])
	assert.Equal(t, int64(1), stats["completed"])
}

func TestExecutor_SubmitAfterClose(t *testing.T) {
	e := NewExecutor(2, 2)
	e.Close()
	e.Close()
	assert.ErrorIs(t, e.Submit(func() bool { return true }), ErrExecutorClosed)
}
