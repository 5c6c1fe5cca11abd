// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux listener and descriptor I/O on golang.org/x/sys/unix.

package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Listener is a non-blocking TCP listening socket.
type Listener struct {
	fd   int
	addr *net.TCPAddr
}

// Listen binds addr ("host:port") and starts listening with the given backlog.
func Listen(addr string, backlog int) (*Listener, error) {
	tcp, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	family := unix.AF_INET
	if tcp.IP != nil && tcp.IP.To4() == nil {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	var sa unix.Sockaddr
	if family == unix.AF_INET6 {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
		sa6 := &unix.SockaddrInet6{Port: tcp.Port}
		copy(sa6.Addr[:], tcp.IP.To16())
		sa = sa6
	} else {
		sa4 := &unix.SockaddrInet4{Port: tcp.Port}
		if tcp.IP != nil {
			copy(sa4.Addr[:], tcp.IP.To4())
		}
		sa = sa4
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	local, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	ip, port := sockaddrIP(local)
	return &Listener{fd: fd, addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: port}}, nil
}

// Fd returns the listening descriptor.
func (l *Listener) Fd() int { return l.fd }

// Addr returns the bound address.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// Accept takes one pending connection. The new descriptor is non-blocking
// with TCP_NODELAY set. An empty backlog yields an error matching IsWouldBlock.
func (l *Listener) Accept() (fd int, ip string, port int, err error) {
	for {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.ECONNABORTED) {
				continue
			}
			return -1, "", 0, err
		}
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		ip, port := sockaddrIP(sa)
		return nfd, ip, port, nil
	}
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

// Read performs one read. Zero bytes with a nil error means EOF.
func Read(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, err
		}
		return n, nil
	}
}

// Write writes as much of p as the socket accepts without blocking.
func Write(fd int, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(fd, p[written:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return written, err
		}
		written += n
	}
	return written, nil
}

// Close closes a connection descriptor.
func Close(fd int) error {
	return unix.Close(fd)
}

// IsWouldBlock reports whether err means the operation would block.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// PeerAddr returns the remote address of a connected descriptor.
func PeerAddr(fd int) (*net.TCPAddr, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return nil, err
	}
	ip, port := sockaddrIP(sa)
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: port}, nil
}

// sockaddrIP renders sa as a textual IP and port. IPv4-mapped IPv6
// addresses are shown in dotted form.
func sockaddrIP(sa unix.Sockaddr) (string, int) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(a.Addr[:]).String(), a.Port
	case *unix.SockaddrInet6:
		ip := net.IP(a.Addr[:])
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), a.Port
		}
		return ip.String(), a.Port
	}
	return "", 0
}

// HostPort joins ip and port for logging.
func HostPort(ip string, port int) string {
	return net.JoinHostPort(ip, strconv.Itoa(port))
}
