// File: internal/blacklist/blacklist.go
// Package blacklist
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-IP connection abuse tracking. Each peer address owns a time window;
// connecting more than Threshold times inside one window marks the address
// as disallowed until the window expires. Entries live in a bounded LRU so
// memory stays fixed under address scans.

package blacklist

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("blacklist: invalid config")

// Config holds blacklist tunables.
type Config struct {
	Enabled   bool
	Size      int
	Threshold int
	Timeout   time.Duration
}

// DefaultConfig returns the stock settings (disabled).
func DefaultConfig() Config {
	return Config{
		Size:      1024,
		Threshold: 30,
		Timeout:   5 * time.Minute,
	}
}

// Entry is the abuse record for one address.
type Entry struct {
	WindowStart time.Time
	Count       int
	Disallow    bool
}

// Blacklist is owned by the reactor goroutine; only the enabled flag may be
// flipped from elsewhere.
type Blacklist struct {
	lru       *simplelru.LRU[string, *Entry]
	enabled   atomic.Bool
	threshold int
	timeout   time.Duration
	evictions atomic.Uint64
}

// New builds a blacklist from cfg.
func New(cfg Config) (*Blacklist, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidConfig, cfg.Size)
	}
	if cfg.Threshold < 1 {
		return nil, fmt.Errorf("%w: threshold %d", ErrInvalidConfig, cfg.Threshold)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout %s", ErrInvalidConfig, cfg.Timeout)
	}
	b := &Blacklist{threshold: cfg.Threshold, timeout: cfg.Timeout}
	l, err := simplelru.NewLRU[string, *Entry](cfg.Size, func(string, *Entry) {
		b.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("blacklist: %w", err)
	}
	b.lru = l
	b.enabled.Store(cfg.Enabled)
	return b, nil
}

// SetEnabled switches checking on or off. Safe from any goroutine.
func (b *Blacklist) SetEnabled(on bool) {
	b.enabled.Store(on)
}

// Enabled reports the current switch state.
func (b *Blacklist) Enabled() bool {
	return b.enabled.Load()
}

// Check records a connection attempt from ip at now and reports whether it
// must be rejected.
func (b *Blacklist) Check(ip string, now time.Time) bool {
	if !b.enabled.Load() {
		return false
	}
	e, ok := b.lru.Get(ip)
	if !ok {
		b.lru.Add(ip, &Entry{WindowStart: now, Count: 1})
		return false
	}
	if now.Sub(e.WindowStart) > b.timeout {
		e.WindowStart = now
		e.Count = 1
		e.Disallow = false
		return false
	}
	e.Count++
	if e.Count > b.threshold {
		e.Disallow = true
	}
	return e.Disallow
}

// Peek returns a copy of the entry for ip without touching recency.
func (b *Blacklist) Peek(ip string) (Entry, bool) {
	e, ok := b.lru.Peek(ip)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of tracked addresses.
func (b *Blacklist) Len() int {
	return b.lru.Len()
}

// Keys returns tracked addresses, oldest first.
func (b *Blacklist) Keys() []string {
	return b.lru.Keys()
}

// Evictions returns how many entries were pushed out by capacity.
func (b *Blacklist) Evictions() uint64 {
	return b.evictions.Load()
}
