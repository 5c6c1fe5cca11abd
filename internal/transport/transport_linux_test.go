//go:build linux

package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptOne(t *testing.T, l *Listener) (int, string, int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		fd, ip, port, err := l.Accept()
		if err == nil {
			return fd, ip, port
		}
		require.True(t, IsWouldBlock(err), "accept: %v", err)
		require.True(t, time.Now().Before(deadline), "no connection accepted")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListenAcceptReadWrite(t *testing.T) {
	l, err := Listen("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer l.Close()
	require.NotZero(t, l.Addr().Port)

	_, _, _, err = l.Accept()
	assert.True(t, IsWouldBlock(err))

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	fd, ip, port := acceptOne(t, l)
	defer Close(fd)
	assert.Equal(t, "127.0.0.1", ip)
	assert.Equal(t, client.LocalAddr().(*net.TCPAddr).Port, port)

	peer, err := PeerAddr(fd)
	require.NoError(t, err)
	assert.Equal(t, port, peer.Port)

	buf := make([]byte, 16)
	_, err = Read(fd, buf)
	assert.True(t, IsWouldBlock(err))

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)
	deadline := time.Now().Add(2 * time.Second)
	var n int
	for {
		n, err = Read(fd, buf)
		if err == nil || !IsWouldBlock(err) || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	w, err := Write(fd, []byte("pong"))
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	got := make([]byte, 4)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = client.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(got))

	client.Close()
	deadline = time.Now().Add(2 * time.Second)
	for {
		n, err = Read(fd, buf)
		if err == nil || !IsWouldBlock(err) || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListenBadAddress(t *testing.T) {
	_, err := Listen("not-an-address", 1)
	assert.Error(t, err)
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "[::1]:80", HostPort("::1", 80))
	assert.Equal(t, "1.2.3.4:8", HostPort("1.2.3.4", 8))
}
