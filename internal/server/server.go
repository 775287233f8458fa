package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/observability"
)

// Options carries the optional collaborators of the server.
type Options struct {
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
	// Ready is consulted by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server wraps the HTTP server and related dependencies.
type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	server   *http.Server
	mux      *http.ServeMux
	listener net.Listener
	done     chan struct{}
}

// New constructs a server with base routes and middleware wiring.
func New(cfg config.Config, logger *slog.Logger, opts Options) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				logger.Warn("readiness check failed", "error", err)
				writeStatus(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	if cfg.MetricsEnabled && opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSAllowedOrigins, handler)
	handler = loggingMiddleware(logger, handler)
	handler = metricsMiddleware(opts.Metrics, handler)
	handler = tracingMiddleware(opts.TracerProvider, handler)
	handler = recoverMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		server: srv,
		mux:    mux,
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously so startup fails fast.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	s.logger.Info("api server listening", "addr", ln.Addr().String(), "env", s.cfg.Env)
	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server within the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.logger.Info("server stopped")
	return nil
}

// Mux exposes the underlying mux for route registration by other packages.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Handler returns the fully wrapped handler, useful for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
