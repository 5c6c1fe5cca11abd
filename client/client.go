// File: client/client.go
// Package client provides a small blocking TCP client for talking to a
// hioload-tcp server, optionally over TLS.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The client is meant for tools, tests and benchmarks. It has no framing of
// its own: RoundTrip writes a request and reads back exactly respLen bytes.

package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("client: closed")

// Config holds the dial and I/O parameters.
type Config struct {
	Addr         string        // host:port
	TLS          *tls.Config   // nil dials plain TCP
	DialTimeout  time.Duration // 0 = no dial timeout
	ReadTimeout  time.Duration // per RoundTrip read deadline
	WriteTimeout time.Duration // per write deadline
	ReconnectMax int           // extra dial attempts on failure (0 = single attempt)
}

// Client is a connected TCP or TLS client. Methods are safe for concurrent
// use but requests are serialized.
type Client struct {
	cfg    Config
	conn   net.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

// Dial connects to cfg.Addr, retrying up to cfg.ReconnectMax times with a
// linear backoff.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.ReconnectMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		conn, err := dial(ctx, cfg)
		if err == nil {
			return &Client{cfg: cfg, conn: conn}, nil
		}
		lastErr = err
	}
	if cfg.ReconnectMax > 0 {
		return nil, fmt.Errorf("client: max reconnect attempts reached: %w", lastErr)
	}
	return nil, lastErr
}

func dial(ctx context.Context, cfg Config) (net.Conn, error) {
	nd := &net.Dialer{Timeout: cfg.DialTimeout}
	if cfg.TLS == nil {
		conn, err := nd.DialContext(ctx, "tcp", cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("client: dial %s: %w", cfg.Addr, err)
		}
		return conn, nil
	}
	td := &tls.Dialer{NetDialer: nd, Config: cfg.TLS}
	conn, err := td.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("client: tls dial %s: %w", cfg.Addr, err)
	}
	return conn, nil
}

// RoundTrip sends req and reads exactly respLen bytes of response.
func (c *Client) RoundTrip(req []byte, respLen int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := c.write(req); err != nil {
		return nil, err
	}
	if c.cfg.ReadTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	resp := make([]byte, respLen)
	if _, err := io.ReadFull(c.conn, resp); err != nil {
		return nil, fmt.Errorf("client: read: %w", err)
	}
	return resp, nil
}

// Send writes p without waiting for a reply.
func (c *Client) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	return c.write(p)
}

func (c *Client) write(p []byte) error {
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if _, err := c.conn.Write(p); err != nil {
		return fmt.Errorf("client: write: %w", err)
	}
	return nil
}

// LocalAddr returns the local address of the connection.
func (c *Client) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Close closes the connection; idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}
