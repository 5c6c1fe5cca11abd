// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus instrumentation for the TCP server core. Metrics is a
// prometheus.Collector so a server can be registered on any registry,
// including several servers in one process under distinct const labels.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons.
const (
	ReasonRate      = "rate"
	ReasonCapacity  = "capacity"
	ReasonBlacklist = "blacklist"
	ReasonTLS       = "tls"
	ReasonError     = "error"
)

// Close reasons.
const (
	CloseEOF       = "eof"
	CloseError     = "error"
	CloseHandler   = "handler"
	CloseIdle      = "idle"
	CloseHangup    = "hangup"
	CloseQueueFull = "queue_full"
	CloseHandshake = "handshake"
	CloseShutdown  = "shutdown"
)

// Metrics holds the server's counters and gauges.
type Metrics struct {
	Accepted     prometheus.Counter
	Rejected     *prometheus.CounterVec
	AcceptErrors prometheus.Counter
	Closed       *prometheus.CounterVec
	Dispatched   prometheus.Counter
	Stale        prometheus.Counter
	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
	Broadcasts   prometheus.Counter
	Handshakes   *prometheus.CounterVec

	Active           prometheus.Gauge
	BlacklistEntries prometheus.Gauge

	collectors []prometheus.Collector
}

var _ prometheus.Collector = (*Metrics)(nil)

// NewMetrics creates unregistered metrics. constLabels may be nil.
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	const ns, sub = "hioload", "tcp"
	m := &Metrics{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "accepted_total",
			Help: "Connections admitted into the registry.", ConstLabels: constLabels,
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "rejected_total",
			Help: "Connections refused at accept time by reason.", ConstLabels: constLabels,
		}, []string{"reason"}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "accept_errors_total",
			Help: "accept(2) failures that paused the listener.", ConstLabels: constLabels,
		}),
		Closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "closed_total",
			Help: "Registered connections closed by reason.", ConstLabels: constLabels,
		}, []string{"reason"}),
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "dispatched_total",
			Help: "Handler tasks submitted to the worker pool.", ConstLabels: constLabels,
		}),
		Stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "stale_completions_total",
			Help: "Task completions discarded because the connection was gone.", ConstLabels: constLabels,
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "read_bytes_total",
			Help: "Plaintext bytes delivered to handlers.", ConstLabels: constLabels,
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "written_bytes_total",
			Help: "Bytes written to sockets.", ConstLabels: constLabels,
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "broadcasts_total",
			Help: "Broadcast operations performed.", ConstLabels: constLabels,
		}),
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "tls_handshakes_total",
			Help: "TLS handshakes by result.", ConstLabels: constLabels,
		}, []string{"result"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "connections",
			Help: "Currently registered connections.", ConstLabels: constLabels,
		}),
		BlacklistEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "blacklist_entries",
			Help: "Addresses tracked by the blacklist.", ConstLabels: constLabels,
		}),
	}
	m.collectors = []prometheus.Collector{
		m.Accepted, m.Rejected, m.AcceptErrors, m.Closed, m.Dispatched, m.Stale,
		m.BytesRead, m.BytesWritten, m.Broadcasts, m.Handshakes,
		m.Active, m.BlacklistEntries,
	}
	return m
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// Register adds m to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	return reg.Register(m)
}
