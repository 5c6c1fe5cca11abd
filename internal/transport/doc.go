// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw socket plumbing for the reactor: a non-blocking listening socket,
// accept with peer address decoding, and EINTR-safe read/write helpers on
// plain descriptors. Linux only; other platforms get stubs returning
// ErrUnsupported.

package transport

import "errors"

// ErrUnsupported is returned on platforms without raw socket support.
var ErrUnsupported = errors.New("transport: not supported on this platform")
