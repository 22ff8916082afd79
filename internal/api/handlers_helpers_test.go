// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

func TestGenerateETag(t *testing.T) {
	a := generateETag([]byte(`{"terid":"T1"}`))
	b := generateETag([]byte(`{"terid":"T2"}`))

	if a == b {
		t.Error("different payloads share an ETag")
	}
	if a != generateETag([]byte(`{"terid":"T1"}`)) {
		t.Error("ETag is not stable")
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETag %s is not quoted", a)
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusAccepted, models.SyncAccepted{Scheduler: "devices", Status: "queued"})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d", rec.Code)
	}
	for header, want := range map[string]string{
		"Content-Type":  "application/json",
		"Cache-Control": "no-cache",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("ETag missing")
	}
	if got := rec.Body.String(); got != `{"scheduler":"devices","status":"queued"}` {
		t.Errorf("body = %s", got)
	}
}

func TestRespondJSON_Unmarshalable(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, map[string]interface{}{"ch": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRespondError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusInternalServerError, ErrCodeDatabase, "Failed to list devices", errors.New("IO Error: /data/fleet.duckdb"))

	body := decode[models.APIError](t, rec)
	if body.Error != ErrCodeDatabase || body.Message != "Failed to list devices" {
		t.Errorf("body = %+v", body)
	}
	if strings.Contains(rec.Body.String(), "fleet.duckdb") {
		t.Errorf("cause leaked: %s", rec.Body.String())
	}
}

func TestRespondValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondValidationError(rec, validation.NewRequestValidationError("start", "flextime", "start must be a date"))

	body := decode[models.APIError](t, rec)
	if rec.Code != http.StatusBadRequest || body.Error != ErrCodeValidation {
		t.Fatalf("status = %d, body = %+v", rec.Code, body)
	}
	if body.Details["field"] != "start" {
		t.Errorf("details = %v", body.Details)
	}
}

func TestRespondStoreError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{database.ErrNotFound, http.StatusNotFound},
		{errors.Join(errors.New("get alarm"), database.ErrNotFound), http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		respondStoreError(rec, tt.err, "missing", "failed")
		if rec.Code != tt.want {
			t.Errorf("respondStoreError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct{ in, want string }{
		{"T1", "T1"},
		{"T1\nlevel=error", `T1\x0alevel=error`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
		{"Dar es Salaam ✓", "Dar es Salaam ✓"},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ limit, want int }{
		{0, 1000},
		{-1, 1000},
		{25, 25},
		{10000, 10000},
		{10001, 10000},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, 1000, 10000); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}
