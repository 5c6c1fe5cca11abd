// Package api
// Author: momentics
//
// Executor contract for bounded parallel task dispatch.

package api

// Task is a unit of work; the result reports success to the executor.
type Task func() bool

// Executor runs tasks on a fixed set of background workers.
type Executor interface {
	// Submit schedules task without blocking. A saturated queue is reported
	// as an error so the caller can shed the work.
	Submit(task Task) error

	// NumWorkers returns the number of worker goroutines.
	NumWorkers() int

	// Close stops accepting tasks and waits for queued ones to finish.
	Close()
}
