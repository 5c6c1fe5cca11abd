// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/control"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics sink. Registration is up to the caller.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithExecutor runs handlers on a caller-owned executor. The server never
// closes it.
func WithExecutor(e api.Executor) Option {
	return func(s *Server) {
		if e != nil {
			s.exec = e
		}
	}
}

// WithDebugProbes registers server probes on dp.
func WithDebugProbes(dp *control.DebugProbes) Option {
	return func(s *Server) {
		s.probes = dp
	}
}

// WithClock overrides the time source used for activity stamps, idle
// sweeps and blacklist windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
