// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// Version is reported by the health endpoints. It is set at build time.
var Version = "dev"

// readyPingTimeout bounds the database ping of the readiness probe.
const readyPingTimeout = 2 * time.Second

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
//
// @Summary Liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.HealthStatus "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:            "alive",
		Version:           Version,
		DatabaseConnected: h.store != nil,
		Timestamp:         h.now().UTC(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only if the database answers a ping.
//
// @Summary Readiness probe
// @Tags Core
// @Produce json
// @Success 200 {object} models.HealthStatus "Service is ready"
// @Failure 503 {object} models.HealthStatus "Database unreachable"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, models.HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		Timestamp:         h.now().UTC(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}
