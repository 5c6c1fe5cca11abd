// File: api/handler.go
// Package api defines the handler and filter contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Filter selects broadcast targets. It runs on the reactor goroutine and
// must not block.
type Filter func(Client) bool

// MatchAll accepts every client.
func MatchAll(Client) bool { return true }

// Response is the handler's answer to one read.
type Response struct {
	// Output is written back to the sender. It may be empty.
	Output []byte
	// Close asks the server to close the connection once Output is written.
	Close bool
	// Broadcast also delivers Output to every other client accepted by Filter.
	Broadcast bool
	// Filter picks broadcast targets; nil means MatchAll.
	Filter Filter
}

// Handler processes the bytes of one read on a worker goroutine.
//
// input is only valid for the duration of the call. client is the
// handler's private copy of the connection identity; changes to UID and
// GIDs are copied back to the connection when the response is applied.
type Handler interface {
	Handle(input []byte, client *Client) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(input []byte, client *Client) Response

// Handle calls f(input, client).
func (f HandlerFunc) Handle(input []byte, client *Client) Response {
	return f(input, client)
}
