// Package fake
// Author: momentics <momentics@gmail.com>
//
// Executor double: runs tasks inline, or rejects them once Reject is set.

package fake

import (
	"errors"
	"sync"

	"github.com/momentics/hioload-tcp/api"
)

var _ api.Executor = (*Executor)(nil)

// ErrRejected is returned by Submit when Reject is set.
var ErrRejected = errors.New("fake: executor rejected task")

// Executor is a synchronous api.Executor.
type Executor struct {
	mu      sync.Mutex
	Reject  bool
	Results []bool
	Closed  bool
}

func (e *Executor) Submit(task api.Task) error {
	e.mu.Lock()
	if e.Reject || e.Closed {
		e.mu.Unlock()
		return ErrRejected
	}
	e.mu.Unlock()
	ok := task()
	e.mu.Lock()
	e.Results = append(e.Results, ok)
	e.mu.Unlock()
	return nil
}

func (e *Executor) NumWorkers() int { return 1 }

func (e *Executor) Close() {
	e.mu.Lock()
	e.Closed = true
	e.mu.Unlock()
}
