package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// DefaultRequestTimeout bounds a single command request.
const DefaultRequestTimeout = 10 * time.Second

// TLSConfig holds the client side TLS settings for https servers.
type TLSConfig struct {
	// CAFile is a PEM bundle added to the system roots.
	CAFile string

	// CertFile and KeyFile hold a client certificate for servers that
	// require one. Both or neither must be set.
	CertFile string
	KeyFile  string

	// ServerName overrides the name used to verify the server certificate.
	ServerName string

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool
}

// IsZero reports whether no TLS setting is configured.
func (c TLSConfig) IsZero() bool {
	return c == TLSConfig{}
}

// NewClientTLSConfig builds a tls.Config from cfg.
func NewClientTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: cfg.ServerName,
	}

	if cfg.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	} else if cfg.CAFile != "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	case cfg.CertFile != "" || cfg.KeyFile != "":
		return nil, errors.New("client certificate and key must be set together")
	}

	return tlsConfig, nil
}

// NewHTTPClient returns an HTTP client for talking to a Goje server. The
// client has no overall timeout so it can hold event streams open; bound
// individual requests with a context.
func NewHTTPClient(cfg TLSConfig) (*http.Client, error) {
	if cfg.IsZero() {
		return &http.Client{}, nil
	}
	tlsConfig, err := NewClientTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tlsConfig
	return &http.Client{Transport: tr}, nil
}
