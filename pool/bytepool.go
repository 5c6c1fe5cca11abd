// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

// BytePool hands out fixed-size read buffers. Buffers travel as *[]byte so
// Put does not allocate.
type BytePool struct {
	pool *SyncPool[*[]byte]
	size int
}

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = 8192
	}
	create := func() *[]byte {
		b := make([]byte, size)
		return &b
	}
	// Foreign-sized buffers are dropped; kept ones are restored to full length.
	reset := func(buf *[]byte) bool {
		if buf == nil || cap(*buf) != size {
			return false
		}
		*buf = (*buf)[:size]
		return true
	}
	return &BytePool{pool: NewSyncPool(create, reset), size: size}
}

// Get returns a buffer of length Size.
func (b *BytePool) Get() *[]byte {
	return b.pool.Get()
}

// Put returns buf to the pool.
func (b *BytePool) Put(buf *[]byte) {
	b.pool.Put(buf)
}

// Size returns the buffer length.
func (b *BytePool) Size() int {
	return b.size
}
