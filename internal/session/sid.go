// File: internal/session/sid.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Session-id allocator. Released ids are reused oldest first; an id is
// never handed out while a stale task may still report against it.

package session

import (
	"github.com/eapache/queue"
)

// SIDAllocator hands out session ids starting at 1.
type SIDAllocator struct {
	free    *queue.Queue
	next    uint64
	retired map[uint64]struct{}
}

// NewSIDAllocator returns an empty allocator.
func NewSIDAllocator() *SIDAllocator {
	return &SIDAllocator{
		free:    queue.New(),
		next:    1,
		retired: make(map[uint64]struct{}),
	}
}

// Acquire returns the oldest free id, or a fresh one.
func (a *SIDAllocator) Acquire() uint64 {
	if a.free.Length() > 0 {
		return a.free.Remove().(uint64)
	}
	id := a.next
	a.next++
	return id
}

// Release returns id to the free list.
func (a *SIDAllocator) Release(id uint64) {
	if id == 0 || id >= a.next {
		return
	}
	a.free.Add(id)
}

// Retire parks id until Settle is called for it.
func (a *SIDAllocator) Retire(id uint64) {
	if id == 0 {
		return
	}
	a.retired[id] = struct{}{}
}

// Settle releases a retired id. Reports whether id was retired.
func (a *SIDAllocator) Settle(id uint64) bool {
	if _, ok := a.retired[id]; !ok {
		return false
	}
	delete(a.retired, id)
	a.Release(id)
	return true
}

// HighWater returns the number of distinct ids ever issued.
func (a *SIDAllocator) HighWater() uint64 {
	return a.next - 1
}

// Free returns the length of the free list.
func (a *SIDAllocator) Free() int {
	return a.free.Length()
}

// Retired returns the number of ids waiting to be settled.
func (a *SIDAllocator) Retired() int {
	return len(a.retired)
}
