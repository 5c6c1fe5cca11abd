// Package session
// Author: momentics <momentics@gmail.com>
//
// Connection registry for the reactor: one record per accepted descriptor,
// session-id allocation with FIFO reuse, and retirement of ids whose
// connection disappeared while a worker task was still running.
//
// The registry is owned by the reactor goroutine and is not safe for
// concurrent use.

package session
