// Package server exposes palette analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/huescheme/internal/analysis"
	"github.com/jmylchreest/huescheme/internal/cache"
	"github.com/jmylchreest/huescheme/internal/config"
	"github.com/jmylchreest/huescheme/internal/metrics"
)

const (
	// AnalyzePath is the upload endpoint.
	AnalyzePath = "/api/analyze-colors"

	// HealthPath is the liveness endpoint.
	HealthPath = "/healthz"

	defaultReadHeaderTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Config   config.ServerConfig
	Metrics  config.MetricsConfig
	Analyzer *analysis.Analyzer

	// Cache is optional; nil disables result caching.
	Cache cache.Store

	// Registry is required when Metrics.Enabled is set. Nil creates one.
	Registry *prometheus.Registry

	Logger hclog.Logger
}

// Server is the HTTP front end for the analysis pipeline.
type Server struct {
	config   config.ServerConfig
	analyzer *analysis.Analyzer
	cache    cache.Store
	sem      *semaphore.Weighted
	logger   hclog.Logger
	handler  http.Handler
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if opts.Config.MaxConcurrent < 1 {
		return nil, fmt.Errorf("max concurrent analyses must be at least 1, got %d", opts.Config.MaxConcurrent)
	}
	if opts.Config.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", opts.Config.MaxUploadBytes)
	}
	if opts.Config.MaxPixels < 0 {
		return nil, fmt.Errorf("max pixels must not be negative, got %d", opts.Config.MaxPixels)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("server")

	s := &Server{
		config:   opts.Config,
		analyzer: opts.Analyzer,
		cache:    opts.Cache,
		sem:      semaphore.NewWeighted(int64(opts.Config.MaxConcurrent)),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+AnalyzePath, s.handleAnalyze)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
	if opts.Metrics.Enabled {
		reg := opts.Registry
		if reg == nil {
			reg = metrics.NewRegistry()
		}
		path := opts.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, metrics.Handler(reg))
	}

	var limiter *rate.Limiter
	if opts.Config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), opts.Config.RateBurst)
	}

	s.handler = requestID(accessLog(logger, rateLimit(limiter, mux)))
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run with a caller-supplied listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
