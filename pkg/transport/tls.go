package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// TLSConfig holds configuration for encrypted broker connections.
type TLSConfig struct {
	// ServerName is the expected server name for certificate
	// verification. When empty the endpoint host is used.
	ServerName string

	// RootCAs is the pool of trusted CA certificates. Nil means the
	// system pool.
	RootCAs *x509.CertPool

	// Certificates holds optional client certificates, for brokers
	// that authenticate clients at the TLS layer.
	Certificates []tls.Certificate

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool
}

// NewClientTLSConfig creates a TLS configuration for connecting to a
// broker. serverName is the dialed hostname, used for server identity
// verification unless cfg overrides it; cfg may be nil for defaults.
func NewClientTLSConfig(serverName string, cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		cfg = &TLSConfig{}
	}
	if cfg.ServerName != "" {
		serverName = cfg.ServerName
	}
	if serverName == "" && !cfg.InsecureSkipVerify {
		return nil, fmt.Errorf("server name is required for certificate verification")
	}

	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         serverName,
		RootCAs:            cfg.RootCAs,
		Certificates:       cfg.Certificates,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}, nil
}
