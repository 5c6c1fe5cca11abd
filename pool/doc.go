// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Object pooling for the reactor's read path: a generic sync.Pool wrapper
// and a fixed-size byte buffer pool built on it.
package pool
