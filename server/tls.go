// File: server/tls.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TLS handshakes run on the worker pool; the reactor only learns the
// outcome through the mailbox.

package server

import (
	"context"
	"crypto/tls"

	"github.com/momentics/hioload-tcp/control"
	"github.com/momentics/hioload-tcp/internal/session"
	"github.com/momentics/hioload-tcp/internal/transport"
)

func (s *Server) startHandshake(c *session.Conn) {
	c.State = session.StateHandshake
	fd, sid, sess := c.Fd, c.Client.SID, c.TLS
	timeout := s.cfg.HandshakeTimeout.Duration

	err := s.submit(func() bool {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		herr := sess.Handshake(ctx)
		cancel()
		s.post(func() { s.handshakeDone(fd, sid, herr) })
		return herr == nil
	})
	if err != nil {
		c.State = session.StateReading
		s.log.Warn("handler queue rejected handshake", "sid", sid, "error", err)
		s.closeConn(c, control.CloseQueueFull)
	}
}

func (s *Server) handshakeDone(fd int, sid uint64, err error) {
	if ofd, ok := s.orphans[sid]; ok {
		delete(s.orphans, sid)
		_ = transport.Close(ofd)
	}
	c, ok := s.reg.Lookup(fd, sid)
	if !ok || c.State != session.StateHandshake {
		s.metrics.Stale.Inc()
		s.reg.Settle(sid)
		return
	}
	c.State = session.StateReading
	if err != nil {
		s.metrics.Handshakes.WithLabelValues("failed").Inc()
		s.log.Debug("tls handshake failed", "sid", sid, "error", err)
		s.closeConn(c, control.CloseHandshake)
		return
	}
	st := c.TLS.State()
	s.metrics.Handshakes.WithLabelValues("ok").Inc()
	s.log.Debug("tls handshake done", "sid", sid,
		"version", tls.VersionName(st.Version), "cipher", tls.CipherSuiteName(st.CipherSuite))
	// records may have arrived together with the client's final flight
	s.ready = append(s.ready, readyRef{fd: fd, sid: sid})
}
