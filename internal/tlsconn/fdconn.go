// File: internal/tlsconn/fdconn.go
// Package tlsconn
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// net.Conn view of a raw descriptor used as the TLS record transport.

package tlsconn

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// pollSlice bounds each blocking wait so Close and deadlines are noticed.
const pollSlice = 50 * time.Millisecond

type wouldBlockError struct{}

func (wouldBlockError) Error() string   { return "tlsconn: operation would block" }
func (wouldBlockError) Timeout() bool   { return true }
func (wouldBlockError) Temporary() bool { return true }

// ErrWouldBlock is returned by reads in reactor mode when the socket is
// drained. crypto/tls treats temporary errors as retryable.
var ErrWouldBlock net.Error = wouldBlockError{}

type fdConn struct {
	fd       int
	local    net.Addr
	remote   net.Addr
	blocking atomic.Bool
	closed   atomic.Bool

	rdeadline atomic.Int64
	wdeadline atomic.Int64

	mu  sync.Mutex
	out []byte
}

var _ net.Conn = (*fdConn)(nil)

func newFDConn(fd int, local, remote net.Addr) *fdConn {
	c := &fdConn{fd: fd, local: local, remote: remote}
	c.blocking.Store(true)
	return c
}

func (c *fdConn) setNonBlocking() {
	c.blocking.Store(false)
}

func (c *fdConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if c.closed.Load() {
			return 0, net.ErrClosed
		}
		n, err := sysRead(c.fd, p)
		switch {
		case err == nil && n > 0:
			return n, nil
		case err == nil:
			return 0, io.EOF
		case isInterrupted(err):
			continue
		case !isWouldBlock(err):
			return 0, err
		case !c.blocking.Load():
			return 0, ErrWouldBlock
		}
		if err := c.wait(false, &c.rdeadline); err != nil {
			return 0, err
		}
	}
}

func (c *fdConn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, net.ErrClosed
	}
	if !c.blocking.Load() {
		c.mu.Lock()
		c.out = append(c.out, p...)
		c.mu.Unlock()
		return len(p), nil
	}
	written := 0
	for written < len(p) {
		if c.closed.Load() {
			return written, net.ErrClosed
		}
		n, err := sysWrite(c.fd, p[written:])
		switch {
		case err == nil:
			written += n
			continue
		case isInterrupted(err):
			continue
		case !isWouldBlock(err):
			return written, err
		}
		if err := c.wait(true, &c.wdeadline); err != nil {
			return written, err
		}
	}
	return written, nil
}

// wait blocks until the descriptor is ready, the deadline passes or the
// connection is closed.
func (c *fdConn) wait(write bool, deadline *atomic.Int64) error {
	for {
		if c.closed.Load() {
			return net.ErrClosed
		}
		slice := pollSlice
		if d := deadline.Load(); d != 0 {
			left := time.Until(time.Unix(0, d))
			if left <= 0 {
				return os.ErrDeadlineExceeded
			}
			if left < slice {
				slice = left
			}
		}
		ready, err := pollFD(c.fd, write, slice)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
}

func (c *fdConn) takeOut(dst []byte) []byte {
	c.mu.Lock()
	dst = append(dst, c.out...)
	c.out = c.out[:0]
	c.mu.Unlock()
	return dst
}

// Close marks the transport closed. The descriptor belongs to the reactor.
func (c *fdConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *fdConn) LocalAddr() net.Addr  { return c.local }
func (c *fdConn) RemoteAddr() net.Addr { return c.remote }

func (c *fdConn) SetDeadline(t time.Time) error {
	c.SetReadDeadline(t)
	return c.SetWriteDeadline(t)
}

func (c *fdConn) SetReadDeadline(t time.Time) error {
	c.rdeadline.Store(deadlineNanos(t))
	return nil
}

func (c *fdConn) SetWriteDeadline(t time.Time) error {
	c.wdeadline.Store(deadlineNanos(t))
	return nil
}

func deadlineNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

var errUnsupported = errors.New("tlsconn: raw descriptor I/O not supported on this platform")
