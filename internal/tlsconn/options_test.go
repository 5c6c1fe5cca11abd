package tlsconn

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-tcp/internal/testutil"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]uint16{
		"":       tls.VersionTLS12,
		"tls1.0": tls.VersionTLS10,
		"TLS1.1": tls.VersionTLS11,
		"tls1.2": tls.VersionTLS12,
		"tls1.3": tls.VersionTLS13,
	}
	for name, want := range cases {
		got, err := ParseVersion(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseVersion("ssl3")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestParseCiphers(t *testing.T) {
	ids, err := ParseCiphers("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = ParseCiphers("TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384")
	require.NoError(t, err)
	assert.Equal(t, []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	}, ids)

	_, err = ParseCiphers("ECDHE-RSA-AES128-GCM-SHA256")
	assert.ErrorIs(t, err, ErrUnknownCipher)
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	cert, key, _ := testutil.WriteServerCert(t, dir, time.Now().Add(24*time.Hour))

	cfg, err := NewConfig(Options{
		CertFile:   cert,
		KeyFile:    key,
		MinVersion: "tls1.2",
		Flags:      FlagNoSessionTickets | FlagNoTLS13,
	})
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MaxVersion)
	assert.True(t, cfg.SessionTicketsDisabled)
}

func TestNewConfigErrors(t *testing.T) {
	dir := t.TempDir()
	cert, key, _ := testutil.WriteServerCert(t, dir, time.Now().Add(-time.Hour))

	_, err := NewConfig(Options{})
	assert.ErrorIs(t, err, ErrNoCertificate)

	_, err = NewConfig(Options{CertFile: cert, KeyFile: key})
	assert.ErrorIs(t, err, ErrCertExpired)

	_, err = NewConfig(Options{CertFile: dir + "/missing.pem", KeyFile: key})
	assert.Error(t, err)

	_, err = NewConfig(Options{CertFile: cert, KeyFile: key, MinVersion: "tls1.3", Flags: FlagNoTLS13})
	assert.Error(t, err)
}
