// Package fake
// Author: momentics <momentics@gmail.com>
//
// Recording poller and executor doubles for unit tests.

package fake

import (
	"sync"
	"time"

	"github.com/momentics/hioload-tcp/api"
)

var _ api.Poller = (*Poller)(nil)

// Call is one recorded poller operation.
type Call struct {
	Op   string
	Fd   int
	Mask api.EventMask
}

// Poller implements api.Poller by recording calls. Wait returns queued events.
type Poller struct {
	mu      sync.Mutex
	Calls   []Call
	Armed   map[int]api.EventMask
	Pending []api.Event
	Wakes   int
	Closed  bool
	DelErr  error
}

// NewPoller creates an empty recording poller.
func NewPoller() *Poller {
	return &Poller{Armed: make(map[int]api.EventMask)}
}

func (p *Poller) Add(fd int, mask api.EventMask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Op: "add", Fd: fd, Mask: mask})
	p.Armed[fd] = mask
	return nil
}

func (p *Poller) Mod(fd int, mask api.EventMask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Op: "mod", Fd: fd, Mask: mask})
	p.Armed[fd] = mask
	return nil
}

func (p *Poller) Del(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Op: "del", Fd: fd})
	delete(p.Armed, fd)
	return p.DelErr
}

// Push queues an event for the next Wait.
func (p *Poller) Push(ev api.Event) {
	p.mu.Lock()
	p.Pending = append(p.Pending, ev)
	p.mu.Unlock()
}

func (p *Poller) Wait(events []api.Event, _ time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(events, p.Pending)
	p.Pending = p.Pending[n:]
	return n, nil
}

func (p *Poller) Wake() error {
	p.mu.Lock()
	p.Wakes++
	p.mu.Unlock()
	return nil
}

func (p *Poller) Close() error {
	p.mu.Lock()
	p.Closed = true
	p.mu.Unlock()
	return nil
}

// Count returns how many times op was recorded for fd.
func (p *Poller) Count(op string, fd int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Calls {
		if c.Op == op && c.Fd == fd {
			n++
		}
	}
	return n
}
