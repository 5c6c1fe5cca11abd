// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server is an event-driven TCP server: one reactor goroutine multiplexes
// every connection over the poller, hands each read to a bounded worker
// pool and applies the handler's response when the task reports back.

package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/control"
	"github.com/momentics/hioload-tcp/internal/blacklist"
	"github.com/momentics/hioload-tcp/internal/concurrency"
	"github.com/momentics/hioload-tcp/internal/logging"
	"github.com/momentics/hioload-tcp/internal/session"
	"github.com/momentics/hioload-tcp/internal/tlsconn"
	"github.com/momentics/hioload-tcp/internal/transport"
	"github.com/momentics/hioload-tcp/pool"
	"github.com/momentics/hioload-tcp/reactor"
)

var _ api.GracefulShutdown = (*Server)(nil)

// readyRef names a connection with input that is already buffered.
type readyRef struct {
	fd  int
	sid uint64
}

// listener is the accepting socket as the reactor sees it.
type listener interface {
	Fd() int
	Addr() *net.TCPAddr
	Accept() (fd int, ip string, port int, err error)
	Close() error
}

// Server is the TCP server facade.
type Server struct {
	cfg     Config
	log     *slog.Logger
	metrics *control.Metrics
	probes  *control.DebugProbes
	now     func() time.Time

	ln       listener
	poller   api.Poller
	exec     api.Executor
	ownsExec bool
	mailbox  *concurrency.LockFreeQueue[func()]
	bufs     *pool.BytePool
	limiter  *rate.Limiter
	tlsCfg   *tls.Config

	// reactor-owned
	reg     *session.Registry
	bl      *blacklist.Blacklist
	handler api.Handler
	ready   []readyRef
	orphans map[uint64]int
	// acceptPaused is set after an accept failure and cleared by housekeeping.
	acceptPaused bool

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	running  atomic.Bool
	done     atomic.Bool
	clients  atomic.Int64
	stopped  chan struct{}
	wakeMu   sync.RWMutex
	shutOnce sync.Once
	pollerUp bool
}

// New binds the listener and builds every subsystem. Run starts serving.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		log:      logging.Discard(),
		now:      time.Now,
		bufs:     pool.NewBytePool(cfg.ReadBufferSize),
		orphans:  make(map[uint64]int),
		stopped:  make(chan struct{}),
		pollerUp: true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = control.NewMetrics(nil)
	}

	bl, err := blacklist.New(blacklist.Config{
		Enabled:   cfg.Blacklist.Enabled,
		Size:      cfg.Blacklist.Size,
		Threshold: cfg.Blacklist.Threshold,
		Timeout:   cfg.Blacklist.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	s.bl = bl

	ln, err := transport.Listen(cfg.Listen, cfg.Backlog)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	poller, err := reactor.NewPoller(cfg.MaxEvents)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("poller: %w", err)
	}
	s.ln, s.poller = ln, poller

	if s.exec == nil {
		s.exec = concurrency.NewExecutor(cfg.Workers, cfg.QueueSize)
		s.ownsExec = true
	}
	// every submitted task posts at most one completion
	s.mailbox = concurrency.NewLockFreeQueue[func()](cfg.QueueSize + s.exec.NumWorkers() + 64)
	s.reg = session.NewRegistry(cfg.MaxConnections, poller)
	if cfg.AcceptRate.PerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate.PerSecond), cfg.AcceptRate.Burst)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.probes != nil {
		s.probes.RegisterProbe("tcp.connections", func() any { return s.NumClients() })
		s.probes.RegisterProbe("tcp.blacklist_enabled", func() any { return s.bl.Enabled() })
		s.probes.RegisterProbe("tcp.tls", func() any { return s.tlsCfg != nil })
		s.probes.RegisterProbe("tcp.listen", func() any { return s.ln.Addr().String() })
	}
	s.log.Info("server created", "listen", ln.Addr().String(), "workers", s.exec.NumWorkers(),
		"max_connections", cfg.MaxConnections)
	return s, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// EnableTLS loads the certificate and switches new connections to TLS.
// It must be called before Run. On failure the server stays in plain mode.
func (s *Server) EnableTLS(opts tlsconn.Options) error {
	if s.running.Load() {
		return api.ErrAlreadyRunning
	}
	cfg, err := tlsconn.NewConfig(opts)
	if err != nil {
		s.log.Warn("tls disabled", "error", err)
		return err
	}
	s.tlsCfg = cfg
	s.log.Info("tls enabled", "cert", opts.CertFile, "min_version", opts.MinVersion)
	return nil
}

// TLSEnabled reports whether connections are TLS-wrapped.
func (s *Server) TLSEnabled() bool {
	return s.tlsCfg != nil
}

// SetBlacklistEnabled toggles abuse tracking at runtime.
func (s *Server) SetBlacklistEnabled(on bool) {
	s.bl.SetEnabled(on)
	s.log.Info("blacklist toggled", "enabled", on)
}

// NumClients returns the number of registered connections.
func (s *Server) NumClients() int {
	return int(s.clients.Load())
}

// Shutdown asks Run to stop. Safe from any goroutine and idempotent.
func (s *Server) Shutdown() error {
	if s.done.Swap(true) {
		return nil
	}
	s.wake()
	return nil
}

// Done is closed once the server released its resources.
func (s *Server) Done() <-chan struct{} {
	return s.stopped
}

// Close stops the server and waits for teardown. A server that never ran
// is torn down directly.
func (s *Server) Close() error {
	_ = s.Shutdown()
	if s.running.CompareAndSwap(false, true) {
		s.teardown()
		return nil
	}
	<-s.stopped
	return nil
}

// wake interrupts the poller unless it is already closed.
func (s *Server) wake() {
	s.wakeMu.RLock()
	if s.pollerUp {
		_ = s.poller.Wake()
	}
	s.wakeMu.RUnlock()
}

// post hands fn to the reactor. Used by workers; never drops a completion
// while the server is running.
func (s *Server) post(fn func()) {
	for !s.mailbox.Enqueue(fn) {
		if s.done.Load() {
			return
		}
		runtime.Gosched()
	}
	s.wake()
}

// submit runs task on the executor and tracks it for teardown.
func (s *Server) submit(task api.Task) error {
	s.inflight.Add(1)
	err := s.exec.Submit(func() bool {
		defer s.inflight.Done()
		return task()
	})
	if err != nil {
		s.inflight.Done()
	}
	return err
}
