// File: server/conn.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection reactor logic: admission, reads, task dispatch, applying
// handler responses, output flushing and close.

package server

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/control"
	"github.com/momentics/hioload-tcp/internal/session"
	"github.com/momentics/hioload-tcp/internal/tlsconn"
	"github.com/momentics/hioload-tcp/internal/transport"
)

// maxRetainedOut caps the output buffer kept between writes.
const maxRetainedOut = 64 << 10

// acceptAll drains the listen backlog. A failure other than an empty
// backlog (EMFILE, ENFILE, ENOBUFS) leaves the pending connection queued, so
// the listener is paused until the next housekeeping pass instead of waking
// the loop on every wait.
func (s *Server) acceptAll() {
	for !s.done.Load() && !s.acceptPaused {
		fd, ip, port, err := s.ln.Accept()
		if err != nil {
			if !transport.IsWouldBlock(err) {
				s.pauseAccept(err)
			}
			return
		}
		s.admit(fd, ip, port)
	}
}

func (s *Server) pauseAccept(cause error) {
	s.metrics.AcceptErrors.Inc()
	s.log.Warn("accept failed, listener paused", "error", cause,
		"retry_in", s.cfg.PollTimeout.Duration, "connections", s.reg.Len())
	if err := s.poller.Mod(s.ln.Fd(), 0); err != nil {
		s.log.Warn("listener pause failed", "error", err)
	}
	s.acceptPaused = true
}

func (s *Server) resumeAccept() {
	if !s.acceptPaused {
		return
	}
	if err := s.poller.Mod(s.ln.Fd(), api.EventRead); err != nil {
		s.log.Warn("listener resume failed", "error", err)
		return
	}
	s.acceptPaused = false
	s.log.Info("listener resumed")
	s.acceptAll()
}

// admit applies admission policy to a freshly accepted descriptor.
// Capacity is checked before the blacklist, so attempts refused for
// capacity do not count toward an address's abuse window.
func (s *Server) admit(fd int, ip string, port int) {
	now := s.now()
	reject := func(reason string, err error) {
		s.metrics.Rejected.WithLabelValues(reason).Inc()
		s.log.Debug("connection rejected", "peer", transport.HostPort(ip, port), "reason", reason, "error", err)
		_ = transport.Close(fd)
	}

	if s.limiter != nil && !s.limiter.AllowN(now, 1) {
		reject(control.ReasonRate, nil)
		return
	}
	if s.reg.Full() {
		reject(control.ReasonCapacity, session.ErrCapacity)
		return
	}
	if s.bl.Check(ip, now) {
		reject(control.ReasonBlacklist, nil)
		return
	}
	c, err := s.reg.Add(fd, ip, port, now)
	if err != nil {
		reject(control.ReasonError, err)
		return
	}
	if s.tlsCfg != nil {
		remote := &net.TCPAddr{IP: net.ParseIP(ip), Port: port}
		c.TLS = tlsconn.NewSession(fd, s.tlsCfg, s.ln.Addr(), remote)
	}
	if err := s.poller.Add(fd, api.EventRead|api.EventOneShot); err != nil {
		s.reg.Del(fd)
		reject(control.ReasonError, err)
		return
	}
	s.clients.Store(int64(s.reg.Len()))
	s.metrics.Accepted.Inc()
	s.metrics.Active.Set(float64(s.reg.Len()))
	s.log.Debug("connection accepted", "peer", transport.HostPort(ip, port), "sid", c.Client.SID)
}

// readable reads what is available and dispatches it to the handler.
func (s *Server) readable(c *session.Conn) {
	if c.TLS != nil && !c.TLS.Established() {
		s.startHandshake(c)
		return
	}
	bufp := s.bufs.Get()
	buf := *bufp

	var (
		n   int
		eof bool
		err error
	)
	if c.TLS != nil {
		n, eof, err = s.readTLS(c, buf)
	} else {
		n, err = transport.Read(c.Fd, buf)
		if err == nil && n == 0 {
			eof = true
		} else if transport.IsWouldBlock(err) {
			err = nil
		}
	}

	switch {
	case err != nil:
		s.bufs.Put(bufp)
		s.log.Debug("read failed", "sid", c.Client.SID, "error", err)
		s.closeConn(c, control.CloseError)
	case n == 0 && eof:
		s.bufs.Put(bufp)
		s.closeConn(c, control.CloseEOF)
	case n == 0:
		s.bufs.Put(bufp)
		s.flush(c)
	default:
		if eof {
			c.CloseAfterFlush = true
		}
		s.dispatch(c, bufp, n)
	}
}

// readTLS pulls plaintext until the session would block or buf is full.
func (s *Server) readTLS(c *session.Conn, buf []byte) (n int, eof bool, err error) {
	c.MoreInput = false
	for n < len(buf) {
		k, rerr := c.TLS.Read(buf[n:])
		n += k
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			eof = true
		} else if !errors.Is(rerr, tlsconn.ErrWouldBlock) {
			err = rerr
		}
		break
	}
	if n == len(buf) {
		c.MoreInput = true
	}
	c.Out = c.TLS.Pending(c.Out)
	return n, eof, err
}

// dispatch hands one read to the worker pool.
func (s *Server) dispatch(c *session.Conn, bufp *[]byte, n int) {
	c.Client.Count++
	c.Client.LastActive = s.now()
	c.Client.Size = s.reg.Len()
	c.State = session.StateBusy

	client := c.Client.Clone()
	fd, sid := c.Fd, c.Client.SID
	input := (*bufp)[:n]
	handler := s.handler

	err := s.submit(func() bool {
		resp, ok := s.invoke(handler, input, &client)
		s.post(func() { s.finish(fd, sid, client, resp, bufp) })
		return ok
	})
	if err != nil {
		s.bufs.Put(bufp)
		c.State = session.StateReading
		s.log.Warn("handler queue rejected task", "sid", sid, "error", err)
		s.closeConn(c, control.CloseQueueFull)
		return
	}
	s.metrics.Dispatched.Inc()
	s.metrics.BytesRead.Add(float64(n))
}

// invoke runs the handler, turning a panic into a close.
func (s *Server) invoke(h api.Handler, input []byte, client *api.Client) (resp api.Response, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", "sid", client.SID, "panic", fmt.Sprint(r))
			resp, ok = api.Response{Close: true}, false
		}
	}()
	return h.Handle(input, client), true
}

// finish applies a handler response on the reactor goroutine.
func (s *Server) finish(fd int, sid uint64, client api.Client, resp api.Response, bufp *[]byte) {
	defer s.bufs.Put(bufp)

	c, ok := s.reg.Lookup(fd, sid)
	if !ok || c.State != session.StateBusy {
		s.metrics.Stale.Inc()
		s.reg.Settle(sid)
		return
	}
	c.Client.UID = client.UID
	c.Client.GIDs = client.GIDs
	c.State = session.StateReading

	if len(resp.Output) > 0 {
		if err := s.queueOutput(c, resp.Output); err != nil {
			s.log.Debug("seal failed", "sid", sid, "error", err)
			s.closeConn(c, control.CloseError)
			return
		}
		if resp.Broadcast {
			s.sendToAll(fd, resp.Output, resp.Filter)
		}
	}
	if resp.Close {
		c.CloseAfterFlush = true
		if c.TLS != nil {
			c.Out = c.TLS.CloseNotify(c.Out)
		}
	}
	s.flush(c)
}

func (s *Server) queueOutput(c *session.Conn, p []byte) error {
	if c.TLS != nil {
		out, err := c.TLS.Seal(c.Out, p)
		c.Out = out
		return err
	}
	c.Out = append(c.Out, p...)
	return nil
}

// flush writes pending output, then re-arms the connection for the next
// event or closes it.
func (s *Server) flush(c *session.Conn) {
	if len(c.Out) > 0 {
		n, err := transport.Write(c.Fd, c.Out)
		s.metrics.BytesWritten.Add(float64(n))
		c.Out = c.Out[n:]
		if err != nil {
			if transport.IsWouldBlock(err) {
				c.State = session.StateFlushing
				s.arm(c, api.EventWrite|api.EventOneShot)
				return
			}
			s.log.Debug("write failed", "sid", c.Client.SID, "error", err)
			s.closeConn(c, control.CloseError)
			return
		}
	}
	if cap(c.Out) > maxRetainedOut {
		c.Out = nil
	} else {
		c.Out = c.Out[:0]
	}
	if c.CloseAfterFlush {
		s.closeConn(c, control.CloseHandler)
		return
	}
	c.State = session.StateReading
	if c.MoreInput {
		c.MoreInput = false
		s.ready = append(s.ready, readyRef{fd: c.Fd, sid: c.Client.SID})
		return
	}
	s.arm(c, api.EventRead|api.EventOneShot)
}

func (s *Server) arm(c *session.Conn, mask api.EventMask) {
	if err := s.poller.Mod(c.Fd, mask); err != nil {
		s.log.Debug("re-arm failed", "sid", c.Client.SID, "error", err)
		s.closeConn(c, control.CloseError)
	}
}

// closeConn removes c from the registry and closes its descriptor. A
// descriptor still used by a handshake worker is closed when that worker
// reports back.
func (s *Server) closeConn(c *session.Conn, reason string) {
	fd, sid, state := c.Fd, c.Client.SID, c.State
	if !s.reg.Del(fd) {
		return
	}
	// accounting happens before the descriptor is closed so a peer that
	// observes the close also observes the counters
	s.clients.Store(int64(s.reg.Len()))
	s.metrics.Closed.WithLabelValues(reason).Inc()
	s.metrics.Active.Set(float64(s.reg.Len()))
	s.log.Debug("connection closed", "peer", transport.HostPort(c.Client.IP, c.Client.Port),
		"sid", sid, "reason", reason, "reads", c.Client.Count)
	if state == session.StateHandshake {
		s.orphans[sid] = fd
	} else {
		_ = transport.Close(fd)
	}
}
