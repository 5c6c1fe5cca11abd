// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for the TCP server core: a fixed-size worker pool
// with a bounded queue and a lock-free MPMC queue used as the reactor's
// completion mailbox.
package concurrency
