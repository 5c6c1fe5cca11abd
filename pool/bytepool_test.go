package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-tcp/pool"
)

func TestBytePoolSize(t *testing.T) {
	bp := pool.NewBytePool(128)
	b := bp.Get()
	assert.Len(t, *b, 128)

	*b = (*b)[:10]
	bp.Put(b)
	b2 := bp.Get()
	assert.Len(t, *b2, 128, "length restored on reuse")
}

func TestBytePoolDropsForeignBuffers(t *testing.T) {
	bp := pool.NewBytePool(64)
	foreign := make([]byte, 32)
	bp.Put(&foreign)
	bp.Put(nil)
	assert.Len(t, *bp.Get(), 64)
	assert.Equal(t, 64, bp.Size())
}

func TestBytePoolDefaultSize(t *testing.T) {
	assert.Equal(t, 8192, pool.NewBytePool(0).Size())
}

func TestSyncPoolResetRejects(t *testing.T) {
	created := 0
	sp := pool.NewSyncPool(func() *int {
		created++
		v := 0
		return &v
	}, func(v *int) bool { return *v >= 0 })

	neg := -1
	sp.Put(&neg)
	got := sp.Get()
	assert.Equal(t, 0, *got, "rejected object never comes back")
	assert.Equal(t, 1, created)
}
