// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/metrics"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	cfg := ChiMiddlewareConfigFromSecurity(config.SecurityConfig{
		CORSOrigins:       []string{"https://map.example.com"},
		RateLimitReqs:     20,
		RateLimitWindow:   30 * time.Second,
		RateLimitDisabled: true,
	})

	if len(cfg.CORSAllowedOrigins) != 1 || cfg.RateLimitRequests != 20 || cfg.RateLimitWindow != 30*time.Second || !cfg.RateLimitDisabled {
		t.Errorf("config = %+v", cfg)
	}
	for _, m := range cfg.CORSAllowedMethods {
		if m == http.MethodDelete || m == http.MethodPut {
			t.Errorf("method %s allowed on a read-only API", m)
		}
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	r := chi.NewRouter()
	r.With(m.RateLimit()).Get("/api/devices", okHandler)

	hits := metrics.APIRateLimitHits.WithLabelValues("/api/devices")
	before := testutil.ToFloat64(hits)

	var codes []int
	for i := 0; i < 4; i++ {
		codes = append(codes, serve(t, r, http.MethodGet, "/api/devices").Code)
	}

	want := []int{200, 200, 429, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("status codes = %v, want %v", codes, want)
		}
	}
	if got := testutil.ToFloat64(hits) - before; got != 2 {
		t.Errorf("rate limit hits delta = %v, want 2", got)
	}

	rec := serve(t, r, http.MethodGet, "/api/devices")
	assertAPIError(t, rec, http.StatusTooManyRequests, ErrCodeRateLimited)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestRateLimit_PerIP(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	handler := m.RateLimit()(http.HandlerFunc(okHandler))

	for _, addr := range []string{"192.0.2.1:1000", "192.0.2.2:1000"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request from %s = %d, want 200", addr, rec.Code)
		}
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ChiMiddlewareConfig
	}{
		{"disabled flag", &ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true}},
		{"zero requests", &ChiMiddlewareConfig{RateLimitWindow: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewChiMiddleware(tt.cfg).RateLimit()(http.HandlerFunc(okHandler))
			for i := 0; i < 5; i++ {
				if rec := serve(t, handler, http.MethodGet, "/"); rec.Code != http.StatusOK {
					t.Fatalf("request %d = %d, want 200", i, rec.Code)
				}
			}
		})
	}
}

func TestCORS(t *testing.T) {
	m := NewChiMiddleware(ChiMiddlewareConfigFromSecurity(config.SecurityConfig{
		CORSOrigins: []string{"https://map.example.com"},
	}))
	handler := m.CORS()(http.HandlerFunc(okHandler))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://map.example.com", "https://map.example.com"},
		{"https://evil.example.net", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/alarms", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	handler := APISecurityHeaders()(http.HandlerFunc(okHandler))

	rec := serve(t, handler, http.MethodGet, "/api/stats")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rec.Header())
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	for name, mutate := range map[string]func(*http.Request){
		"direct TLS": func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
		"proxy TLS":  func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		mutate(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get("Strict-Transport-Security") == "" {
			t.Errorf("%s: HSTS missing", name)
		}
	}
}
