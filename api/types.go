// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Connection identity shared between the reactor, handlers and filters.

package api

import "time"

// NoSender is the session id that excludes nobody from a broadcast.
// Session ids handed out by the server start at 1.
const NoSender uint64 = 0

// Client describes one connection as seen by application code.
// Handlers and filters always work on a copy; the live record is owned
// by the reactor and never escapes it.
type Client struct {
	IP         string
	Port       int
	LastActive time.Time
	SID        uint64   // unique among open connections, reused after release
	UID        uint64   // application-assigned, not interpreted by the server
	GIDs       []uint64 // application-assigned, not interpreted by the server
	Count      uint64   // reads delivered on this connection so far
	Size       int      // open connections when the read was dispatched
}

// Clone returns a copy of c that shares no memory with it.
func (c Client) Clone() Client {
	if c.GIDs != nil {
		c.GIDs = append([]uint64(nil), c.GIDs...)
	}
	return c
}

// InGroup reports whether gid is one of the client's groups.
func (c Client) InGroup(gid uint64) bool {
	for _, g := range c.GIDs {
		if g == gid {
			return true
		}
	}
	return false
}
