package blacklist

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T, size, threshold int, timeout time.Duration) *Blacklist {
	t.Helper()
	b, err := New(Config{Enabled: true, Size: size, Threshold: threshold, Timeout: timeout})
	require.NoError(t, err)
	return b
}

func TestCheckDisabledAdmitsAll(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	now := time.Now()
	for i := 0; i < 100; i++ {
		assert.False(t, b.Check("10.0.0.1", now))
	}
	assert.Equal(t, 0, b.Len())
}

func TestCheckThreshold(t *testing.T) {
	b := newTestBlacklist(t, 16, 3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		assert.False(t, b.Check("10.0.0.1", now), "attempt %d", i+1)
	}
	assert.True(t, b.Check("10.0.0.1", now))
	assert.True(t, b.Check("10.0.0.1", now.Add(time.Second)))

	e, ok := b.Peek("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, 5, e.Count)
	assert.True(t, e.Disallow)

	assert.False(t, b.Check("10.0.0.2", now))
}

func TestCheckWindowReset(t *testing.T) {
	b := newTestBlacklist(t, 16, 1, time.Minute)
	now := time.Now()

	assert.False(t, b.Check("a", now))
	assert.True(t, b.Check("a", now.Add(time.Second)))

	later := now.Add(2 * time.Minute)
	assert.False(t, b.Check("a", later))
	e, _ := b.Peek("a")
	assert.Equal(t, 1, e.Count)
	assert.False(t, e.Disallow)
	assert.Equal(t, later, e.WindowStart)
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	b := newTestBlacklist(t, 3, 5, time.Minute)
	now := time.Now()
	for i := 0; i < 3; i++ {
		b.Check(fmt.Sprintf("10.0.0.%d", i), now)
	}
	// touch .0 so .1 is the oldest
	b.Check("10.0.0.0", now)
	b.Check("10.0.0.9", now)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.0", "10.0.0.9"}, b.Keys(), "oldest first")
	_, ok := b.Peek("10.0.0.1")
	assert.False(t, ok)
	_, ok = b.Peek("10.0.0.0")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), b.Evictions())
}

func TestToggleAtRuntime(t *testing.T) {
	b := newTestBlacklist(t, 4, 1, time.Minute)
	now := time.Now()
	b.Check("x", now)
	assert.True(t, b.Check("x", now))

	b.SetEnabled(false)
	assert.False(t, b.Check("x", now))
	b.SetEnabled(true)
	assert.True(t, b.Check("x", now))
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Size: 0, Threshold: 1, Timeout: time.Second},
		{Size: 1, Threshold: 0, Timeout: time.Second},
		{Size: 1, Threshold: 1},
	} {
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}
