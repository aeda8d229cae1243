// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package ops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IljiaPolstianoy/eventstats/internal/config"
)

func newTestServer(checkers map[string]HealthChecker) *Server {
	return NewServer(&config.OpsConfig{Host: "127.0.0.1", Port: 0, Timeout: 5 * time.Second}, checkers)
}

func testRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	return r
}

func TestLivenessAlwaysOK(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	testRouter(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReadinessReflectsCheckers(t *testing.T) {
	healthy := HealthCheckerFunc(func(context.Context) bool { return true })
	unhealthy := HealthCheckerFunc(func(context.Context) bool { return false })

	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		want     int
	}{
		{"no checkers", nil, http.StatusOK},
		{"all healthy", map[string]HealthChecker{"nats": healthy, "duckdb": healthy}, http.StatusOK},
		{"one unhealthy", map[string]HealthChecker{"nats": healthy, "duckdb": unhealthy}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.checkers)
			rec := httptest.NewRecorder()
			testRouter(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
