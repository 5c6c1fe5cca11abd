// File: internal/session/registry.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Registry maps descriptors to connection records.

package session

import (
	"errors"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/internal/tlsconn"
)

var (
	// ErrDuplicate is returned by Add when the descriptor is already registered.
	ErrDuplicate = errors.New("session: descriptor already registered")
	// ErrCapacity is returned by Add when the registry is full.
	ErrCapacity = errors.New("session: connection limit reached")
)

// State is the reactor-side state of a connection.
type State uint8

const (
	// StateReading: armed for read, no task in flight.
	StateReading State = iota
	// StateBusy: a handler task owns the connection.
	StateBusy
	// StateFlushing: output pending, armed for write.
	StateFlushing
	// StateHandshake: TLS handshake running on a worker.
	StateHandshake
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateBusy:
		return "busy"
	case StateFlushing:
		return "flushing"
	case StateHandshake:
		return "handshake"
	}
	return "unknown"
}

// Conn is one registered connection.
type Conn struct {
	Fd     int
	Client api.Client
	TLS    *tlsconn.Session
	State  State

	// Out holds bytes not yet accepted by the socket.
	Out []byte
	// CloseAfterFlush closes the connection once Out drains.
	CloseAfterFlush bool
	// MoreInput marks buffered plaintext left behind by a full read.
	MoreInput bool
}

// InFlight reports whether a worker task currently references the connection.
func (c *Conn) InFlight() bool {
	return c.State == StateBusy || c.State == StateHandshake
}

// Unregisterer removes a descriptor from the readiness set.
type Unregisterer interface {
	Del(fd int) error
}

// Registry is the reactor-owned connection table.
type Registry struct {
	conns  map[int]*Conn
	bySID  map[uint64]int
	sids   *SIDAllocator
	max    int
	poller Unregisterer
}

// NewRegistry creates a registry bounded by max connections (<= 0 is unbounded).
// poller may be nil.
func NewRegistry(max int, poller Unregisterer) *Registry {
	return &Registry{
		conns:  make(map[int]*Conn),
		bySID:  make(map[uint64]int),
		sids:   NewSIDAllocator(),
		max:    max,
		poller: poller,
	}
}

// Add registers fd with a fresh session id.
func (r *Registry) Add(fd int, ip string, port int, now time.Time) (*Conn, error) {
	if _, ok := r.conns[fd]; ok {
		return nil, ErrDuplicate
	}
	if r.Full() {
		return nil, ErrCapacity
	}
	c := &Conn{
		Fd: fd,
		Client: api.Client{
			IP:         ip,
			Port:       port,
			LastActive: now,
			SID:        r.sids.Acquire(),
		},
	}
	r.conns[fd] = c
	r.bySID[c.Client.SID] = fd
	return c, nil
}

// Del removes fd, unregisters it from the poller and closes its TLS session.
// The descriptor itself is left open. Returns false if fd was not registered.
func (r *Registry) Del(fd int) bool {
	c, ok := r.conns[fd]
	if !ok {
		return false
	}
	delete(r.conns, fd)
	delete(r.bySID, c.Client.SID)
	if c.InFlight() {
		r.sids.Retire(c.Client.SID)
	} else {
		r.sids.Release(c.Client.SID)
	}
	if r.poller != nil {
		_ = r.poller.Del(fd)
	}
	if c.TLS != nil {
		c.TLS.Close()
	}
	return true
}

// Get returns the record for fd.
func (r *Registry) Get(fd int) (*Conn, bool) {
	c, ok := r.conns[fd]
	return c, ok
}

// Lookup returns the record for fd only if it still carries sid.
func (r *Registry) Lookup(fd int, sid uint64) (*Conn, bool) {
	c, ok := r.conns[fd]
	if !ok || c.Client.SID != sid {
		return nil, false
	}
	return c, true
}

// BySID returns the connection currently holding sid.
func (r *Registry) BySID(sid uint64) (*Conn, bool) {
	fd, ok := r.bySID[sid]
	if !ok {
		return nil, false
	}
	return r.conns[fd], true
}

// Settle releases sid if it was retired by Del.
func (r *Registry) Settle(sid uint64) bool {
	return r.sids.Settle(sid)
}

// Range calls fn for every connection until fn returns false.
// fn must not add or remove connections.
func (r *Registry) Range(fn func(*Conn) bool) {
	for _, c := range r.conns {
		if !fn(c) {
			return
		}
	}
}

// Snapshot returns the registered descriptors.
func (r *Registry) Snapshot() []int {
	fds := make([]int, 0, len(r.conns))
	for fd := range r.conns {
		fds = append(fds, fd)
	}
	return fds
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Full reports whether Add would fail with ErrCapacity.
func (r *Registry) Full() bool {
	return r.max > 0 && len(r.conns) >= r.max
}

// SIDs exposes the allocator.
func (r *Registry) SIDs() *SIDAllocator {
	return r.sids
}
