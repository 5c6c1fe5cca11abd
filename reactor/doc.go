// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness poller behind the server's event
// loop. Linux uses epoll with an eventfd for cross-goroutine wakeups; other
// platforms get a stub that reports api.ErrNotSupported.
package reactor

import "errors"

// DefaultMaxEvents is the batch size used when none is configured.
const DefaultMaxEvents = 128

var (
	// ErrPollerClosed is returned by operations on a closed poller.
	ErrPollerClosed = errors.New("reactor: poller closed")
	// ErrBadDescriptor is returned for negative descriptors.
	ErrBadDescriptor = errors.New("reactor: bad descriptor")
)
