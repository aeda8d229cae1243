// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

// Package ops serves the operational HTTP surface shared by all three
// binaries: liveness, readiness, and Prometheus metrics. It is separate from
// the gRPC data plane so load balancers and scrapers never touch the RPC
// ports.
package ops

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IljiaPolstianoy/eventstats/internal/config"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
)

// HealthChecker reports whether a dependency is ready to serve.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) bool

// IsHealthy implements HealthChecker.
func (f HealthCheckerFunc) IsHealthy(ctx context.Context) bool {
	return f(ctx)
}

// Server is the operational HTTP endpoint.
type Server struct {
	addr     string
	timeout  time.Duration
	checkers map[string]HealthChecker
}

// NewServer creates the ops endpoint. checkers maps a dependency name to its
// readiness probe; readiness fails if any dependency is unhealthy.
func NewServer(cfg *config.OpsConfig, checkers map[string]HealthChecker) *Server {
	return &Server{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		timeout:  cfg.Timeout,
		checkers: checkers,
	}
}

// Serve listens until context cancellation. Implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.timeout,
		WriteTimeout:      s.timeout,
		IdleTimeout:       2 * s.timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.addr).Msg("Ops HTTP listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	for name, checker := range s.checkers {
		if !checker.IsHealthy(r.Context()) {
			logging.Warn().Str("dependency", name).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, `{"status":"unavailable","dependency":%q}`, name)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
