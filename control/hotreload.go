// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks fired when the process is asked to re-read its settings.

package control

import "sync"

// ReloadHooks is a set of listeners invoked on reload.
type ReloadHooks struct {
	mu    sync.Mutex
	hooks []func()
}

// Register adds a reload listener.
func (r *ReloadHooks) Register(fn func()) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// Trigger dispatches all hooks asynchronously.
func (r *ReloadHooks) Trigger() {
	for _, fn := range r.snapshot() {
		go fn()
	}
}

// TriggerSync invokes all hooks in registration order.
func (r *ReloadHooks) TriggerSync() {
	for _, fn := range r.snapshot() {
		fn()
	}
}

func (r *ReloadHooks) snapshot() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]func(){}, r.hooks...)
}
