// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/fleetwatch/internal/metrics"
)

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/alarm/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/alarm/{id}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alarm/"+id, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("api_requests_total delta = %v, want 3", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodPost, "unmatched", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/nowhere", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_ActiveRequestsReturnsToBaseline(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)
	var during float64

	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("active during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active after request = %v, want %v", after, before)
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Run("first status wins", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		rw.WriteHeader(http.StatusTeapot)
		rw.WriteHeader(http.StatusOK)
		if rw.statusCode != http.StatusTeapot {
			t.Errorf("statusCode = %d, want 418", rw.statusCode)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		_, _ = rw.Write([]byte("x"))
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want 200", rw.statusCode)
		}
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		if _, _, err := rw.Hijack(); err == nil {
			t.Error("Hijack() error = nil on a recorder without Hijacker")
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		inner := httptest.NewRecorder()
		rw := newStatusRecorder(inner)
		if rw.Unwrap() != inner {
			t.Error("Unwrap() did not return the wrapped writer")
		}
		rw.Flush()
		if !inner.Flushed {
			t.Error("Flush() was not forwarded")
		}
	})
}
