//go:build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"net"
	"strconv"
)

// Listener is unavailable on this platform.
type Listener struct{}

func Listen(string, int) (*Listener, error) { return nil, ErrUnsupported }

func (l *Listener) Fd() int            { return -1 }
func (l *Listener) Addr() *net.TCPAddr { return nil }
func (l *Listener) Accept() (int, string, int, error) {
	return -1, "", 0, ErrUnsupported
}
func (l *Listener) Close() error { return ErrUnsupported }

func Read(int, []byte) (int, error)      { return 0, ErrUnsupported }
func Write(int, []byte) (int, error)     { return 0, ErrUnsupported }
func Close(int) error                    { return ErrUnsupported }
func IsWouldBlock(error) bool            { return false }
func PeerAddr(int) (*net.TCPAddr, error) { return nil, ErrUnsupported }

func HostPort(ip string, port int) string { return net.JoinHostPort(ip, strconv.Itoa(port)) }
