// Package config holds the server configuration assembled from the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jakobwesthoff/blendwerk/pkg/requestlog"
)

// CertMode selects how the HTTPS listener obtains its certificate.
type CertMode string

// Certificate modes.
const (
	// CertModeNone disables HTTPS entirely.
	CertModeNone CertMode = "none"
	// CertModeSelfSigned generates a localhost certificate at startup.
	CertModeSelfSigned CertMode = "self-signed"
	// CertModeCustom loads PEM cert and key files from disk.
	CertModeCustom CertMode = "custom"
)

// ParseCertMode parses a cert mode string from the CLI.
func ParseCertMode(s string) (CertMode, error) {
	switch s {
	case "none":
		return CertModeNone, nil
	case "self-signed", "":
		return CertModeSelfSigned, nil
	case "custom":
		return CertModeCustom, nil
	default:
		return "", fmt.Errorf("unknown cert mode %q (want none, self-signed, or custom)", s)
	}
}

// Config is the fully resolved server configuration.
type Config struct {
	// Directory is the mock root to serve.
	Directory string

	HTTPPort  int
	HTTPSPort int

	// HTTPOnly and HTTPSOnly disable the respective other listener.
	// They are mutually exclusive.
	HTTPOnly  bool
	HTTPSOnly bool

	CertMode CertMode
	CertFile string
	KeyFile  string

	// RequestLogDir enables request logging into the given directory
	// when non-empty.
	RequestLogDir    string
	RequestLogFormat requestlog.Format

	// LogLevel and LogFormat configure operational logging.
	LogLevel  string
	LogFormat string

	// ShutdownGrace bounds how long in-flight requests may finish after
	// a shutdown signal.
	ShutdownGrace time.Duration
}

// Default returns the configuration the CLI starts from.
func Default() *Config {
	return &Config{
		HTTPPort:         8080,
		HTTPSPort:        8443,
		CertMode:         CertModeSelfSigned,
		RequestLogFormat: requestlog.FormatJSON,
		LogLevel:         "info",
		LogFormat:        "text",
		ShutdownGrace:    5 * time.Second,
	}
}

// Validate checks the configuration for argument-level errors. A non-nil
// return maps to CLI exit code 2.
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.New("a mock directory is required")
	}

	info, err := os.Stat(c.Directory)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("directory %q does not exist", c.Directory)
	case err != nil:
		return fmt.Errorf("cannot access directory %q: %w", c.Directory, err)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", c.Directory)
	}

	if c.HTTPOnly && c.HTTPSOnly {
		return errors.New("--http-only and --https-only are mutually exclusive")
	}
	if !c.ServeHTTP() && !c.ServeHTTPS() {
		return errors.New("nothing to serve: HTTPS is disabled and --https-only was given")
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}
	if c.HTTPSPort < 1 || c.HTTPSPort > 65535 {
		return fmt.Errorf("invalid HTTPS port %d", c.HTTPSPort)
	}

	if c.CertMode == CertModeCustom {
		if c.CertFile == "" || c.KeyFile == "" {
			return errors.New("--cert-file and --key-file are required with --cert-mode custom")
		}
	} else if c.CertFile != "" || c.KeyFile != "" {
		return errors.New("--cert-file and --key-file only apply to --cert-mode custom")
	}

	return nil
}

// ServeHTTP reports whether the HTTP listener should run.
func (c *Config) ServeHTTP() bool {
	return !c.HTTPSOnly
}

// ServeHTTPS reports whether the HTTPS listener should run.
func (c *Config) ServeHTTPS() bool {
	return !c.HTTPOnly && c.CertMode != CertModeNone
}

// RequestLogEnabled reports whether served traffic should be persisted.
func (c *Config) RequestLogEnabled() bool {
	return c.RequestLogDir != ""
}
