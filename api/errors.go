// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across packages.

package api

import "errors"

var (
	ErrServerClosed    = errors.New("server closed")
	ErrAlreadyRunning  = errors.New("server already running")
	ErrNotRunning      = errors.New("server not running")
	ErrNilHandler      = errors.New("nil handler")
	ErrMailboxFull     = errors.New("reactor mailbox full")
	ErrNotSupported    = errors.New("operation not supported on this platform")
	ErrInvalidArgument = errors.New("invalid argument")
)
