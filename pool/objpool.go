// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is a typed sync.Pool. Objects returned through Put are passed to
// reset first; reset may reject an object by returning false.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T) bool
}

var _ ObjectPool[int] = (*SyncPool[int])(nil)

// NewSyncPool creates a pool that allocates with creator. reset may be nil.
func NewSyncPool[T any](creator func() T, reset func(T) bool) *SyncPool[T] {
	sp := &SyncPool[T]{reset: reset}
	sp.pool.New = func() any { return creator() }
	return sp
}

// Get returns a pooled or freshly created object.
func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

// Put recycles obj unless reset rejects it.
func (sp *SyncPool[T]) Put(obj T) {
	if sp.reset != nil && !sp.reset(obj) {
		return
	}
	sp.pool.Put(obj)
}
