//go:build !linux

// File: internal/tlsconn/fdconn_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tlsconn

import "time"

func sysRead(int, []byte) (int, error)  { return 0, errUnsupported }
func sysWrite(int, []byte) (int, error) { return 0, errUnsupported }

func isWouldBlock(error) bool  { return false }
func isInterrupted(error) bool { return false }

func pollFD(int, bool, time.Duration) (bool, error) { return false, errUnsupported }
