// Package cli implements the blendwerk command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakobwesthoff/blendwerk/internal/runtime"
	"github.com/jakobwesthoff/blendwerk/pkg/config"
	"github.com/jakobwesthoff/blendwerk/pkg/engine"
	"github.com/jakobwesthoff/blendwerk/pkg/logging"
	"github.com/jakobwesthoff/blendwerk/pkg/requestlog"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// usageError marks argument-level failures that map to exit code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// serveFlags carries the raw flag values before they are resolved into a
// config.Config.
type serveFlags struct {
	httpPort         int
	httpsPort        int
	httpOnly         bool
	httpsOnly        bool
	certMode         string
	certFile         string
	keyFile          string
	requestLog       string
	requestLogFormat string
	logLevel         string
	logFormat        string
}

// NewRootCmd builds the blendwerk root command.
func NewRootCmd(version string) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:     "blendwerk <DIRECTORY>",
		Short:   "A file-based mock HTTP/HTTPS server for testing",
		Version: version,
		Long: `blendwerk serves a directory tree as a mock HTTP/HTTPS API.

Directory paths become URL paths, filenames encode HTTP methods, and
directories named [param] capture path parameters:

  mocks/api/users/GET.json        GET  /api/users
  mocks/api/users/[id]/GET.json   GET  /api/users/:id

Each mock file may start with a YAML frontmatter block setting status,
headers, and an artificial delay; the rest of the file is the response
body. The directory is watched and routes hot-reload on change.`,
		Example: `  # Serve ./mocks on the default ports (8080 HTTP, 8443 HTTPS)
  blendwerk mocks

  # HTTP only, custom port
  blendwerk --http-only --http-port 3000 mocks

  # Log every request/response pair as YAML
  blendwerk --request-log request-logs --request-log-format yaml mocks`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError{errors.New("exactly one mock directory is required")}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.httpPort, "http-port", 8080, "HTTP listener port")
	f.IntVar(&flags.httpsPort, "https-port", 8443, "HTTPS listener port")
	f.BoolVar(&flags.httpOnly, "http-only", false, "only serve HTTP (no HTTPS)")
	f.BoolVar(&flags.httpsOnly, "https-only", false, "only serve HTTPS (no HTTP)")
	f.StringVar(&flags.certMode, "cert-mode", "self-signed", "certificate mode (none, self-signed, custom)")
	f.StringVar(&flags.certFile, "cert-file", "", "PEM certificate file (cert-mode custom)")
	f.StringVar(&flags.keyFile, "key-file", "", "PEM private key file (cert-mode custom)")
	f.StringVar(&flags.requestLog, "request-log", "", "directory to log all requests into")
	f.StringVar(&flags.requestLogFormat, "request-log-format", "json", "request log format (json, yaml)")
	f.StringVar(&flags.logLevel, "log-level", "info", "operational log level (debug, info, warn, error)")
	f.StringVar(&flags.logFormat, "log-format", "text", "operational log format (text, json)")
	cmd.MarkFlagsMutuallyExclusive("http-only", "https-only")

	return cmd
}

// buildConfig resolves flag values into a validated configuration.
func buildConfig(flags *serveFlags, directory string) (*config.Config, error) {
	cfg := config.Default()
	cfg.Directory = directory
	cfg.HTTPPort = flags.httpPort
	cfg.HTTPSPort = flags.httpsPort
	cfg.HTTPOnly = flags.httpOnly
	cfg.HTTPSOnly = flags.httpsOnly
	cfg.CertFile = flags.certFile
	cfg.KeyFile = flags.keyFile
	cfg.RequestLogDir = flags.requestLog
	cfg.LogLevel = flags.logLevel
	cfg.LogFormat = flags.logFormat

	certMode, err := config.ParseCertMode(flags.certMode)
	if err != nil {
		return nil, usageError{err}
	}
	cfg.CertMode = certMode

	logFormat, err := requestlog.ParseFormat(flags.requestLogFormat)
	if err != nil {
		return nil, usageError{err}
	}
	cfg.RequestLogFormat = logFormat

	if err := cfg.Validate(); err != nil {
		return nil, usageError{err}
	}
	return cfg, nil
}

// runServe starts the engine and blocks until a termination signal.
func runServe(flags *serveFlags, directory string) error {
	cfg, err := buildConfig(flags, directory)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
	})

	log.Info("starting blendwerk", "directory", cfg.Directory)

	srv, err := engine.NewServer(cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	// As a container's init process, also reap orphans and relay signals.
	if runtime.IsPID1() {
		log.Info("running as PID 1, child reaping enabled")
		stopReaper := runtime.StartReaper(log)
		defer stopReaper()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Info("received signal, shutting down", "signal", sig.String())

	if runtime.IsPID1() {
		runtime.ForwardSignal(sig, log)
	}

	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string, args []string) int {
	cmd := NewRootCmd(version)
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var usage usageError
		if errors.As(err, &usage) || isFlagParseError(err) {
			return ExitUsage
		}
		return ExitRuntime
	}
	return ExitOK
}

// isFlagParseError classifies cobra/pflag parse failures, which count as
// argument errors.
func isFlagParseError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"unknown flag", "unknown shorthand flag", "invalid argument",
		"flag needs an argument", "if any flags in the group",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
