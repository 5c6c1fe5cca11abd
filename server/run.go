// File: server/run.go
// Package server implements the reactor loop, connection acceptor and
// graceful shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/control"
	"github.com/momentics/hioload-tcp/internal/session"
	"github.com/momentics/hioload-tcp/internal/transport"
)

// Run serves connections with handler until Shutdown is called or ctx ends.
// It blocks the calling goroutine, which becomes the reactor.
func (s *Server) Run(ctx context.Context, handler api.Handler) error {
	if handler == nil {
		return api.ErrNilHandler
	}
	if !s.running.CompareAndSwap(false, true) {
		return api.ErrAlreadyRunning
	}
	defer s.teardown()
	s.handler = handler

	stop := context.AfterFunc(ctx, func() { _ = s.Shutdown() })
	defer stop()

	lfd := s.ln.Fd()
	if err := s.poller.Add(lfd, api.EventRead); err != nil {
		return fmt.Errorf("register listener: %w", err)
	}
	s.log.Info("server running", "listen", s.ln.Addr().String(), "tls", s.tlsCfg != nil)

	events := make([]api.Event, s.cfg.MaxEvents)
	lastSweep := s.now()
	for !s.done.Load() {
		timeout := s.cfg.PollTimeout.Duration
		if len(s.ready) > 0 {
			timeout = 0
		}
		n, err := s.poller.Wait(events, timeout)
		if err != nil {
			if s.done.Load() {
				break
			}
			return fmt.Errorf("poll wait: %w", err)
		}

		acceptable := false
		for _, ev := range events[:n] {
			if ev.Fd == lfd {
				acceptable = true
				continue
			}
			s.handleEvent(ev)
		}
		if acceptable && !s.acceptPaused {
			s.acceptAll()
		}
		s.drainMailbox()
		s.drainReady()

		if now := s.now(); now.Sub(lastSweep) >= s.cfg.PollTimeout.Duration {
			s.housekeeping(now)
			lastSweep = now
		}
	}
	s.log.Info("server stopping", "connections", s.reg.Len())
	return nil
}

func (s *Server) handleEvent(ev api.Event) {
	c, ok := s.reg.Get(ev.Fd)
	if !ok {
		return
	}
	if ev.Mask&api.EventError != 0 {
		s.closeConn(c, control.CloseHangup)
		return
	}
	switch {
	case c.State == session.StateReading && ev.Mask&api.EventRead != 0:
		s.readable(c)
	case c.State == session.StateFlushing && ev.Mask&api.EventWrite != 0:
		s.flush(c)
	}
}

func (s *Server) drainMailbox() {
	for {
		fn, ok := s.mailbox.Dequeue()
		if !ok {
			return
		}
		fn()
	}
}

func (s *Server) drainReady() {
	if len(s.ready) == 0 {
		return
	}
	refs := append([]readyRef(nil), s.ready...)
	s.ready = s.ready[:0]
	for _, r := range refs {
		if c, ok := s.reg.Lookup(r.fd, r.sid); ok && c.State == session.StateReading {
			s.readable(c)
		}
	}
}

func (s *Server) housekeeping(now time.Time) {
	s.resumeAccept()
	if idle := s.cfg.IdleTimeout.Duration; idle > 0 {
		var stale []*session.Conn
		s.reg.Range(func(c *session.Conn) bool {
			if c.State == session.StateReading && now.Sub(c.Client.LastActive) > idle {
				stale = append(stale, c)
			}
			return true
		})
		for _, c := range stale {
			s.closeConn(c, control.CloseIdle)
		}
	}
	s.metrics.Active.Set(float64(s.reg.Len()))
	s.metrics.BlacklistEntries.Set(float64(s.bl.Len()))
}

// teardown releases everything. Handlers still running are waited for.
func (s *Server) teardown() {
	s.shutOnce.Do(func() {
		s.done.Store(true)
		if err := s.ln.Close(); err != nil {
			s.log.Debug("listener close", "error", err)
		}
		s.cancel()
		for _, fd := range s.reg.Snapshot() {
			if c, ok := s.reg.Get(fd); ok {
				s.closeConn(c, control.CloseShutdown)
			}
		}
		s.inflight.Wait()
		s.drainMailbox()
		for sid, fd := range s.orphans {
			delete(s.orphans, sid)
			_ = transport.Close(fd)
		}
		if s.ownsExec {
			s.exec.Close()
		}
		s.wakeMu.Lock()
		s.pollerUp = false
		_ = s.poller.Close()
		s.wakeMu.Unlock()
		s.clients.Store(0)
		s.metrics.Active.Set(0)
		s.log.Info("server stopped")
		close(s.stopped)
	})
}
