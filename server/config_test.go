package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-tcp/internal/tlsconn"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 511, cfg.Backlog)
	assert.Equal(t, 8192, cfg.ReadBufferSize)
	assert.Equal(t, 64, cfg.MaxEvents)
	assert.Equal(t, 5*time.Second, cfg.PollTimeout.Duration)
	assert.Equal(t, 1024, cfg.MaxConnections)
	assert.False(t, cfg.Blacklist.Enabled)
	assert.Equal(t, 1024, cfg.Blacklist.Size)
	assert.Equal(t, 30, cfg.Blacklist.Threshold)
	assert.Equal(t, 5*time.Minute, cfg.Blacklist.Timeout.Duration)
	assert.False(t, cfg.TLS.Enabled())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := `
listen: 127.0.0.1:7000
max_connections: 10
idle_timeout: 90s
blacklist:
  enabled: true
  threshold: 3
  timeout: 1m
accept_rate:
  per_second: 100
tls:
  cert: /etc/cert.pem
  key: /etc/key.pem
  min_version: tls1.2
  no_tls13: true
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, 90*time.Second, cfg.IdleTimeout.Duration)
	assert.True(t, cfg.Blacklist.Enabled)
	assert.Equal(t, 3, cfg.Blacklist.Threshold)
	assert.Equal(t, time.Minute, cfg.Blacklist.Timeout.Duration)
	assert.Equal(t, 1024, cfg.Blacklist.Size)
	assert.Equal(t, 101, cfg.AcceptRate.Burst)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts := cfg.TLS.Options()
	assert.Equal(t, "/etc/cert.pem", opts.CertFile)
	assert.Equal(t, tlsconn.FlagNoTLS13, opts.Flags)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("poll_timeout: soon\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("max_connections: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("unknown_key: 1\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)
}

func TestDurationRoundTrip(t *testing.T) {
	in := struct {
		D Duration `yaml:"d"`
	}{D: Duration{1500 * time.Millisecond}}
	out, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "d: 1.5s\n", string(out))

	var back struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, in.D, back.D)
}
