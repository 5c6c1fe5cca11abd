// File: client/client_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return ln
}

func TestRoundTrip(t *testing.T) {
	ln := echoListener(t)
	c, err := Dial(context.Background(), Config{
		Addr:         ln.Addr().String(),
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)

	resp, err := c.RoundTrip([]byte("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp))
	assert.NotNil(t, c.LocalAddr())

	require.NoError(t, c.Send([]byte("ab")))
	resp, err = c.RoundTrip([]byte("c"), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(resp))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.RoundTrip([]byte("x"), 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Send([]byte("x")), ErrClosed)
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), Config{Addr: addr, DialTimeout: time.Second})
	require.Error(t, err)

	_, err = Dial(context.Background(), Config{Addr: addr, DialTimeout: time.Second, ReconnectMax: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max reconnect attempts")
}
