// File: internal/tlsconn/session.go
// Package tlsconn
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection TLS session over a raw non-blocking descriptor.
//
// The handshake runs on a worker goroutine with the descriptor driven in
// blocking style (poll-and-retry). Once established, the session switches
// to reactor mode: reads return ErrWouldBlock instead of waiting and every
// record produced by a write is buffered for the reactor to flush.

package tlsconn

import (
	"context"
	"crypto/tls"
	"net"
	"sync/atomic"
)

// Session is one server-side TLS connection.
type Session struct {
	conn        *fdConn
	tls         *tls.Conn
	established atomic.Bool
}

// NewSession wraps fd. The descriptor stays owned by the caller.
func NewSession(fd int, cfg *tls.Config, local, remote net.Addr) *Session {
	c := newFDConn(fd, local, remote)
	return &Session{conn: c, tls: tls.Server(c, cfg)}
}

// Handshake performs the server handshake. It blocks the calling goroutine
// until it completes, fails, ctx ends or Close is called.
func (s *Session) Handshake(ctx context.Context) error {
	if err := s.tls.HandshakeContext(ctx); err != nil {
		return err
	}
	s.conn.setNonBlocking()
	s.established.Store(true)
	return nil
}

// Established reports whether the handshake completed.
func (s *Session) Established() bool {
	return s.established.Load()
}

// State returns the negotiated parameters. Valid after Handshake.
func (s *Session) State() tls.ConnectionState {
	return s.tls.ConnectionState()
}

// Read returns decrypted application data. ErrWouldBlock means no complete
// record is available yet.
func (s *Session) Read(p []byte) (int, error) {
	return s.tls.Read(p)
}

// Seal encrypts p and appends the resulting records, together with any
// other pending records, to dst.
func (s *Session) Seal(dst, p []byte) ([]byte, error) {
	if len(p) > 0 {
		if _, err := s.tls.Write(p); err != nil {
			return dst, err
		}
	}
	return s.conn.takeOut(dst), nil
}

// Pending appends records queued by the session itself (alerts, key
// updates) to dst.
func (s *Session) Pending(dst []byte) []byte {
	return s.conn.takeOut(dst)
}

// CloseNotify appends a close_notify alert to dst.
func (s *Session) CloseNotify(dst []byte) []byte {
	_ = s.tls.CloseWrite()
	return s.conn.takeOut(dst)
}

// Close aborts any blocked handshake I/O. The descriptor is not closed.
func (s *Session) Close() {
	s.conn.Close()
}
