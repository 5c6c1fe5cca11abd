// File: server/config.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server configuration: defaults, YAML loading and validation.

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-tcp/internal/logging"
	"github.com/momentics/hioload-tcp/internal/tlsconn"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("server: invalid config")

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := value.Value
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// BlacklistConfig controls per-IP abuse tracking.
type BlacklistConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Size      int      `yaml:"size"`
	Threshold int      `yaml:"threshold"`
	Timeout   Duration `yaml:"timeout"`
}

// RateConfig limits accepted connections per second across all peers.
// PerSecond <= 0 disables the limiter.
type RateConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// TLSConfig is the YAML form of tlsconn.Options.
type TLSConfig struct {
	Cert             string `yaml:"cert"`
	Key              string `yaml:"key"`
	MinVersion       string `yaml:"min_version"`
	Ciphers          string `yaml:"ciphers"`
	NoSessionTickets bool   `yaml:"no_session_tickets"`
	NoTLS13          bool   `yaml:"no_tls13"`
}

// Enabled reports whether a certificate is configured.
func (t TLSConfig) Enabled() bool {
	return t.Cert != "" || t.Key != ""
}

// Options converts to tlsconn.Options.
func (t TLSConfig) Options() tlsconn.Options {
	var flags tlsconn.Flags
	if t.NoSessionTickets {
		flags |= tlsconn.FlagNoSessionTickets
	}
	if t.NoTLS13 {
		flags |= tlsconn.FlagNoTLS13
	}
	return tlsconn.Options{
		CertFile:   t.Cert,
		KeyFile:    t.Key,
		MinVersion: t.MinVersion,
		Ciphers:    t.Ciphers,
		Flags:      flags,
	}
}

// Config holds all server-side configuration parameters.
type Config struct {
	Listen           string   `yaml:"listen"`             // TCP bind address, e.g. ":9090"
	Backlog          int      `yaml:"backlog"`            // listen(2) backlog
	ReadBufferSize   int      `yaml:"read_buffer_size"`   // bytes per read
	MaxEvents        int      `yaml:"max_events"`         // poll batch size
	PollTimeout      Duration `yaml:"poll_timeout"`       // housekeeping period
	IdleTimeout      Duration `yaml:"idle_timeout"`       // 0 keeps idle connections
	MaxConnections   int      `yaml:"max_connections"`    // registry capacity
	Workers          int      `yaml:"workers"`            // handler goroutines
	QueueSize        int      `yaml:"queue_size"`         // pending handler tasks
	HandshakeTimeout Duration `yaml:"handshake_timeout"`  // TLS handshake bound

	Blacklist  BlacklistConfig `yaml:"blacklist"`
	AcceptRate RateConfig      `yaml:"accept_rate"`
	TLS        TLSConfig       `yaml:"tls"`
	Log        logging.Options `yaml:"log"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// LoadConfig reads configuration from the supplied path.
func LoadConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	return DecodeConfig(file)
}

// ParseConfig decodes YAML bytes.
func ParseConfig(data []byte) (Config, error) {
	return DecodeConfig(bytes.NewReader(data))
}

// DecodeConfig reads YAML from r, applies defaults and validates.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
	if cfg.Backlog == 0 {
		cfg.Backlog = 511
	}
	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = 8192
	}
	if cfg.MaxEvents == 0 {
		cfg.MaxEvents = 64
	}
	if cfg.PollTimeout.Duration == 0 {
		cfg.PollTimeout.Duration = 5 * time.Second
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 1024
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}
	if cfg.HandshakeTimeout.Duration == 0 {
		cfg.HandshakeTimeout.Duration = 5 * time.Second
	}
	if cfg.Blacklist.Size == 0 {
		cfg.Blacklist.Size = 1024
	}
	if cfg.Blacklist.Threshold == 0 {
		cfg.Blacklist.Threshold = 30
	}
	if cfg.Blacklist.Timeout.Duration == 0 {
		cfg.Blacklist.Timeout.Duration = 5 * time.Minute
	}
	if cfg.AcceptRate.PerSecond > 0 && cfg.AcceptRate.Burst == 0 {
		cfg.AcceptRate.Burst = int(cfg.AcceptRate.PerSecond) + 1
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Backlog < 0:
		return fmt.Errorf("%w: backlog %d", ErrInvalidConfig, c.Backlog)
	case c.ReadBufferSize < 1:
		return fmt.Errorf("%w: read_buffer_size %d", ErrInvalidConfig, c.ReadBufferSize)
	case c.MaxEvents < 1:
		return fmt.Errorf("%w: max_events %d", ErrInvalidConfig, c.MaxEvents)
	case c.PollTimeout.Duration <= 0:
		return fmt.Errorf("%w: poll_timeout %s", ErrInvalidConfig, c.PollTimeout.Duration)
	case c.IdleTimeout.Duration < 0:
		return fmt.Errorf("%w: idle_timeout %s", ErrInvalidConfig, c.IdleTimeout.Duration)
	case c.MaxConnections < 1:
		return fmt.Errorf("%w: max_connections %d", ErrInvalidConfig, c.MaxConnections)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size %d", ErrInvalidConfig, c.QueueSize)
	case c.HandshakeTimeout.Duration <= 0:
		return fmt.Errorf("%w: handshake_timeout %s", ErrInvalidConfig, c.HandshakeTimeout.Duration)
	case c.Blacklist.Size < 1:
		return fmt.Errorf("%w: blacklist.size %d", ErrInvalidConfig, c.Blacklist.Size)
	case c.Blacklist.Threshold < 1:
		return fmt.Errorf("%w: blacklist.threshold %d", ErrInvalidConfig, c.Blacklist.Threshold)
	case c.Blacklist.Timeout.Duration <= 0:
		return fmt.Errorf("%w: blacklist.timeout %s", ErrInvalidConfig, c.Blacklist.Timeout.Duration)
	case c.AcceptRate.PerSecond < 0 || c.AcceptRate.Burst < 0:
		return fmt.Errorf("%w: accept_rate", ErrInvalidConfig)
	}
	return nil
}
