// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handoff

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TLSConfig points at the PEM encoded material used to serve HTTPS.
type TLSConfig struct {
	CertFile string
	KeyFile  string

	// ClientCAFile and ClientCADir are optional. When either is set,
	// clients must present a certificate signed by one of the CAs.
	ClientCAFile string
	ClientCADir  string
}

var errNoCertificates = errors.New("no certificates found")

func (cfg TLSConfig) load() (*tls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, TLSConfigError{Cause: errors.New("certificate and private key files are required")}
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, TLSConfigError{Cause: err}
	}

	tc := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.ClientCAFile == "" && cfg.ClientCADir == "" {
		return tc, nil
	}

	pool, err := cfg.clientCAs()
	if err != nil {
		return nil, TLSConfigError{Cause: err}
	}
	tc.ClientCAs = pool
	tc.ClientAuth = tls.RequireAndVerifyClientCert
	return tc, nil
}

func (cfg TLSConfig) clientCAs() (*x509.CertPool, error) {
	pool := x509.NewCertPool()

	var found bool
	if cfg.ClientCAFile != "" {
		b, err := os.ReadFile(cfg.ClientCAFile)
		if err != nil {
			return nil, err
		}
		if !pool.AppendCertsFromPEM(b) {
			return nil, fmt.Errorf("%s: %w", cfg.ClientCAFile, errNoCertificates)
		}
		found = true
	}

	if cfg.ClientCADir != "" {
		entries, err := os.ReadDir(cfg.ClientCADir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			b, err := os.ReadFile(filepath.Join(cfg.ClientCADir, entry.Name()))
			if err != nil {
				return nil, err
			}
			if pool.AppendCertsFromPEM(b) {
				found = true
			}
		}
	}

	if !found {
		return nil, errNoCertificates
	}
	return pool, nil
}
