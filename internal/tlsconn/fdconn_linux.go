//go:build linux

// File: internal/tlsconn/fdconn_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tlsconn

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

func sysRead(fd int, p []byte) (int, error)  { return unix.Read(fd, p) }
func sysWrite(fd int, p []byte) (int, error) { return unix.Write(fd, p) }

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func isInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}

// pollFD waits up to d for fd to become readable or writable. Error and
// hangup conditions report ready so the following I/O call surfaces them.
func pollFD(fd int, write bool, d time.Duration) (bool, error) {
	events := int16(unix.POLLIN)
	if write {
		events = unix.POLLOUT
	}
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	ms := int(d / time.Millisecond)
	if ms <= 0 {
		ms = 1
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}
