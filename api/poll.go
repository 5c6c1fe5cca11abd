// Package api
// Author: momentics
//
// Readiness notification contract used by the reactor loop.

package api

import "time"

// EventMask is a set of readiness conditions.
type EventMask uint32

const (
	// EventRead reports or requests read readiness (includes peer shutdown).
	EventRead EventMask = 1 << iota
	// EventWrite reports or requests write readiness.
	EventWrite
	// EventError reports an error or hangup. It is never requested.
	EventError
	// EventOneShot disarms the descriptor after one delivery until Mod.
	EventOneShot
)

// Event is one ready descriptor returned by Poller.Wait.
type Event struct {
	Fd   int
	Mask EventMask
}

// Poller multiplexes readiness of many descriptors.
//
// Add, Mod, Del and Wait are called from a single goroutine. Wake may be
// called from any goroutine to interrupt a blocked Wait.
type Poller interface {
	Add(fd int, mask EventMask) error
	Mod(fd int, mask EventMask) error
	Del(fd int) error

	// Wait blocks up to timeout (negative blocks forever) and fills events.
	// A Wake or an interrupted system call returns zero events and no error.
	Wait(events []Event, timeout time.Duration) (int, error)

	Wake() error
	Close() error
}
