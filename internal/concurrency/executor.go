// File: internal/concurrency/executor.go
// Package concurrency implements the bounded worker pool behind the reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs tasks on a fixed number of worker goroutines fed from one
// bounded queue. Submit never blocks: a full queue is reported as
// ErrQueueFull so the reactor can close the connection instead of
// buffering without limit.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-tcp/api"
)

var _ api.Executor = (*Executor)(nil)

// Executor manages a pool of worker goroutines.
type Executor struct {
	queue   chan api.Task
	workers int
	mu      sync.RWMutex // guards sends on queue against close
	closed  atomic.Bool
	wg      sync.WaitGroup

	// statistics
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// NewExecutor starts numWorkers workers sharing a queue of queueSize tasks.
// numWorkers <= 0 defaults to runtime.NumCPU(); queueSize <= 0 to 64 per worker.
func NewExecutor(numWorkers, queueSize int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = numWorkers * 64
	}
	e := &Executor{
		queue:   make(chan api.Task, queueSize),
		workers: numWorkers,
	}
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.run()
	}
	return e
}

// Submit enqueues a task, returning ErrQueueFull when saturated and
// ErrExecutorClosed after Close.
func (e *Executor) Submit(task api.Task) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	select {
	case e.queue <- task:
		e.submitted.Add(1)
		return nil
	default:
		e.rejected.Add(1)
		return ErrQueueFull
	}
}

// NumWorkers returns the number of worker goroutines.
func (e *Executor) NumWorkers() int {
	return e.workers
}

// QueueCap returns the queue bound.
func (e *Executor) QueueCap() int {
	return cap(e.queue)
}

// Close stops accepting tasks, lets queued tasks run and waits for workers.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed.Swap(true) {
		e.mu.Unlock()
		return
	}
	close(e.queue)
	e.mu.Unlock()
	e.wg.Wait()
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"submitted":   e.submitted.Load(),
		"completed":   e.completed.Load(),
		"failed":      e.failed.Load(),
		"rejected":    e.rejected.Load(),
		"queued":      int64(len(e.queue)),
		"num_workers": int64(e.workers),
	}
}

func (e *Executor) run() {
	defer e.wg.Done()
	for task := range e.queue {
		e.execute(task)
	}
}

// execute runs the task and records its result, keeping the worker alive
// across panics.
func (e *Executor) execute(task api.Task) {
	ok := false
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
		if ok {
			e.completed.Add(1)
		} else {
			e.failed.Add(1)
		}
	}()
	ok = task()
}
