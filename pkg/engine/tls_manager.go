package engine

import (
	"crypto/tls"
	"fmt"

	"github.com/jakobwesthoff/blendwerk/pkg/config"
	blendtls "github.com/jakobwesthoff/blendwerk/pkg/tls"
)

// TLSManager resolves the configured certificate mode into a tls.Config
// for the HTTPS listener.
type TLSManager struct {
	cfg *config.Config
}

// NewTLSManager creates a TLSManager for the given configuration.
func NewTLSManager(cfg *config.Config) *TLSManager {
	return &TLSManager{cfg: cfg}
}

// BuildConfig builds the TLS configuration, or nil when HTTPS is disabled.
func (tm *TLSManager) BuildConfig() (*tls.Config, error) {
	if !tm.cfg.ServeHTTPS() {
		return nil, nil
	}

	var cert tls.Certificate

	switch tm.cfg.CertMode {
	case config.CertModeSelfSigned:
		gen, err := blendtls.GenerateSelfSignedCert(blendtls.DefaultCertificateConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to generate certificate: %w", err)
		}
		cert, err = blendtls.CreateTLSCertificate(gen.CertPEM, gen.KeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS certificate: %w", err)
		}
	case config.CertModeCustom:
		var err error
		cert, err = tls.LoadX509KeyPair(tm.cfg.CertFile, tm.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load certificate: %w", err)
		}
	default:
		return nil, fmt.Errorf("cert mode %q cannot serve HTTPS", tm.cfg.CertMode)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
