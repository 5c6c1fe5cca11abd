// File: server/broadcast.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fan-out of one payload to every connection accepted by a filter.

package server

import (
	"context"
	"fmt"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/control"
	"github.com/momentics/hioload-tcp/internal/session"
)

// SendToAll delivers payload to every connection accepted by filter except
// the one holding sender (api.NoSender excludes nobody). It runs on the
// reactor and reports whether at least one connection was targeted; false
// means the registry was empty or nothing matched. An empty payload still
// reports its targets but writes nothing.
func (s *Server) SendToAll(ctx context.Context, sender uint64, payload []byte, filter api.Filter) (bool, error) {
	if !s.running.Load() {
		return false, api.ErrNotRunning
	}
	if s.done.Load() {
		return false, api.ErrServerClosed
	}
	data := append([]byte(nil), payload...)
	res := make(chan bool, 1)
	fn := func() {
		senderFD := -1
		if c, ok := s.reg.BySID(sender); ok && sender != api.NoSender {
			senderFD = c.Fd
		}
		res <- s.sendToAll(senderFD, data, filter)
	}
	if !s.mailbox.Enqueue(fn) {
		return false, api.ErrMailboxFull
	}
	s.wake()

	select {
	case ok := <-res:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, api.ErrServerClosed
	}
}

// sendToAll runs on the reactor. senderFD < 0 excludes nobody.
func (s *Server) sendToAll(senderFD int, payload []byte, filter api.Filter) bool {
	if s.reg.Len() == 0 {
		return false
	}
	if filter == nil {
		filter = api.MatchAll
	}
	var targets []*session.Conn
	s.reg.Range(func(c *session.Conn) bool {
		if c.Fd == senderFD || c.State == session.StateHandshake {
			return true
		}
		if c.TLS != nil && !c.TLS.Established() {
			return true
		}
		if s.accepts(filter, c) {
			targets = append(targets, c)
		}
		return true
	})
	if len(targets) == 0 {
		return false
	}
	s.metrics.Broadcasts.Inc()
	for _, c := range targets {
		s.deliver(c, payload)
	}
	return true
}

// accepts evaluates filter on a copy of the client; a panicking filter
// rejects.
func (s *Server) accepts(filter api.Filter, c *session.Conn) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("broadcast filter panic", "sid", c.Client.SID, "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	return filter(c.Client.Clone())
}

// deliver queues payload on c and writes it right away when c is idle.
// Busy connections get it flushed with their own response.
func (s *Server) deliver(c *session.Conn, payload []byte) {
	if err := s.queueOutput(c, payload); err != nil {
		s.closeConn(c, control.CloseError)
		return
	}
	if c.State == session.StateReading {
		s.flush(c)
	}
}
