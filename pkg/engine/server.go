package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/jakobwesthoff/blendwerk/pkg/config"
	"github.com/jakobwesthoff/blendwerk/pkg/logging"
	"github.com/jakobwesthoff/blendwerk/pkg/requestlog"
	"github.com/jakobwesthoff/blendwerk/pkg/routes"
	"github.com/jakobwesthoff/blendwerk/pkg/watcher"
)

// Server wires the mock engine together: compile, watch, reload, serve.
type Server struct {
	cfg *config.Config
	log *slog.Logger

	reloader   *Reloader
	watch      *watcher.Watcher
	logWriter  *requestlog.Writer
	dispatcher *Dispatcher
	tlsManager *TLSManager

	httpServer  *http.Server
	httpsServer *http.Server
	httpAddr    net.Addr
	httpsAddr   net.Addr

	shutdownCh chan struct{}
	cancel     context.CancelFunc

	mu      sync.Mutex
	running bool
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer compiles the mock root and assembles the engine. The initial
// compile is fatal on error; later reloads fall back to the previous
// table instead.
func NewServer(cfg *config.Config, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		log:        logging.Nop(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	table, diags, err := routes.Compile(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("compiling mock directory: %w", err)
	}
	for _, d := range diags {
		s.log.Warn("compile diagnostic", "kind", string(d.Kind), "path", d.Path, "detail", d.Detail)
	}
	s.log.Info("routes compiled", "count", table.Len())
	for _, r := range table.Routes() {
		s.log.Debug("route", "method", r.Method, "pattern", r.Pattern)
	}

	w, err := watcher.New(cfg.Directory, s.log)
	if err != nil {
		return nil, fmt.Errorf("watching mock directory: %w", err)
	}
	s.watch = w
	s.reloader = NewReloader(cfg.Directory, table, w.Events(), WithReloaderLogger(s.log))

	var dispatcherOpts []DispatcherOption
	dispatcherOpts = append(dispatcherOpts,
		WithDispatcherLogger(s.log),
		WithShutdownSignal(s.shutdownCh),
	)
	if cfg.RequestLogEnabled() {
		s.logWriter = requestlog.NewWriter(cfg.RequestLogDir, cfg.RequestLogFormat,
			requestlog.WithLogger(s.log))
		dispatcherOpts = append(dispatcherOpts, WithRequestLog(s.logWriter))
		s.log.Info("request logging enabled",
			"dir", cfg.RequestLogDir, "format", string(cfg.RequestLogFormat))
	}
	s.dispatcher = NewDispatcher(s.reloader, dispatcherOpts...)
	s.tlsManager = NewTLSManager(cfg)

	return s, nil
}

// Start binds the configured listeners and begins serving. It returns
// once the listeners are bound; serving continues in the background until
// Stop is called.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.watch.Run(ctx)
	go s.reloader.Run(ctx)

	if s.cfg.ServeHTTP() {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.HTTPPort))
		if err != nil {
			cancel()
			return fmt.Errorf("binding HTTP listener: %w", err)
		}
		s.httpAddr = ln.Addr()
		s.httpServer = &http.Server{Handler: s.dispatcher}
		s.log.Info("HTTP server listening", "addr", ln.Addr().String())
		go func() {
			if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("HTTP server error", "error", err)
			}
		}()
	}

	if s.cfg.ServeHTTPS() {
		tlsConfig, err := s.tlsManager.BuildConfig()
		if err != nil {
			cancel()
			s.closeListeners()
			return fmt.Errorf("failed to setup TLS: %w", err)
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.HTTPSPort))
		if err != nil {
			cancel()
			s.closeListeners()
			return fmt.Errorf("binding HTTPS listener: %w", err)
		}
		s.httpsAddr = ln.Addr()
		s.httpsServer = &http.Server{Handler: s.dispatcher, TLSConfig: tlsConfig}
		s.log.Info("HTTPS server listening", "addr", ln.Addr().String())
		go func() {
			if err := s.httpsServer.ServeTLS(ln, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("HTTPS server error", "error", err)
			}
		}()
	}

	s.running = true
	return nil
}

// closeListeners tears down any listener started before a failed Start.
func (s *Server) closeListeners() {
	if s.httpServer != nil {
		_ = s.httpServer.Close()
		s.httpServer = nil
		s.httpAddr = nil
	}
}

// Stop gracefully shuts the server down: listeners stop accepting,
// in-flight requests get the configured grace period (delayed responses
// answer 503 immediately), then the request log queue is drained.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	// Wake handlers sleeping in a response delay.
	close(s.shutdownCh)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	if s.httpsServer != nil {
		if err := s.httpsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTPS shutdown: %w", err))
		}
	}

	s.cancel()
	if err := s.watch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("watcher close: %w", err))
	}

	if s.logWriter != nil {
		s.logWriter.Close()
		if dropped := s.logWriter.Dropped(); dropped > 0 {
			s.log.Warn("request log records dropped", "count", dropped)
		}
		if failures := s.logWriter.WriteFailures(); failures > 0 {
			s.log.Warn("request log writes failed", "count", failures)
		}
	}

	s.running = false

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Shutdown is the external entry point for signal handlers and the PID-1
// collaborator. It is safe to call from any goroutine.
func (s *Server) Shutdown() error {
	return s.Stop()
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// HTTPAddr returns the bound HTTP listener address, or nil.
func (s *Server) HTTPAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpAddr
}

// HTTPSAddr returns the bound HTTPS listener address, or nil.
func (s *Server) HTTPSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpsAddr
}
