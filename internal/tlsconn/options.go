// File: internal/tlsconn/options.go
// Package tlsconn
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server-side TLS configuration built once from certificate, key, protocol
// floor, cipher list and option flags.

package tlsconn

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoCertificate is returned when the certificate or key path is empty.
	ErrNoCertificate = errors.New("tlsconn: certificate and key are required")
	// ErrCertExpired is returned for a certificate past its NotAfter.
	ErrCertExpired = errors.New("tlsconn: certificate expired")
	// ErrUnknownVersion is returned for an unrecognised version name.
	ErrUnknownVersion = errors.New("tlsconn: unknown protocol version")
	// ErrUnknownCipher is returned for an unrecognised cipher suite name.
	ErrUnknownCipher = errors.New("tlsconn: unknown cipher suite")
)

// Flags tweak protocol behaviour.
type Flags uint32

const (
	// FlagNoSessionTickets disables session ticket resumption.
	FlagNoSessionTickets Flags = 1 << iota
	// FlagNoTLS13 caps the negotiated version at TLS 1.2.
	FlagNoTLS13
)

// Options describes a TLS listener.
type Options struct {
	CertFile string
	KeyFile  string
	// MinVersion is one of "tls1.0", "tls1.1", "tls1.2", "tls1.3".
	// Empty means tls1.2.
	MinVersion string
	// Ciphers is a colon or comma separated list of Go cipher suite names.
	// It only affects TLS 1.2 and below.
	Ciphers string
	Flags   Flags
}

var versions = map[string]uint16{
	"tls1.0": tls.VersionTLS10,
	"tls1.1": tls.VersionTLS11,
	"tls1.2": tls.VersionTLS12,
	"tls1.3": tls.VersionTLS13,
}

// ParseVersion maps a version name to its crypto/tls constant.
func ParseVersion(name string) (uint16, error) {
	if name == "" {
		return tls.VersionTLS12, nil
	}
	v, ok := versions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, name)
	}
	return v, nil
}

// ParseCiphers resolves suite names to ids. An empty list returns nil,
// leaving the crypto/tls defaults in place.
func ParseCiphers(list string) ([]uint16, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ':' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil, nil
	}
	known := make(map[string]uint16)
	for _, s := range tls.CipherSuites() {
		known[s.Name] = s.ID
	}
	for _, s := range tls.InsecureCipherSuites() {
		known[s.Name] = s.ID
	}
	ids := make([]uint16, 0, len(fields))
	for _, f := range fields {
		id, ok := known[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewConfig loads and validates the key pair and returns a server config.
func NewConfig(opts Options) (*tls.Config, error) {
	if opts.CertFile == "" || opts.KeyFile == "" {
		return nil, ErrNoCertificate
	}
	minVersion, err := ParseVersion(opts.MinVersion)
	if err != nil {
		return nil, err
	}
	suites, err := ParseCiphers(opts.Ciphers)
	if err != nil {
		return nil, err
	}
	cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsconn: load key pair: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("tlsconn: parse certificate: %w", err)
	}
	if time.Now().After(leaf.NotAfter) {
		return nil, fmt.Errorf("%w: not after %s", ErrCertExpired, leaf.NotAfter.Format(time.RFC3339))
	}
	cert.Leaf = leaf

	cfg := &tls.Config{
		Certificates:           []tls.Certificate{cert},
		MinVersion:             minVersion,
		CipherSuites:           suites,
		SessionTicketsDisabled: opts.Flags&FlagNoSessionTickets != 0,
	}
	if opts.Flags&FlagNoTLS13 != 0 {
		if minVersion > tls.VersionTLS12 {
			return nil, fmt.Errorf("%w: tls1.3 floor conflicts with FlagNoTLS13", ErrUnknownVersion)
		}
		cfg.MaxVersion = tls.VersionTLS12
	}
	return cfg, nil
}
