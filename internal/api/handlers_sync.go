// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/sync"
)

// SyncStatus returns a snapshot of every scheduler.
//
// @Summary Scheduler status
// @Tags Sync
// @Produce json
// @Success 200 {array} models.SchedulerStatus
// @Failure 503 {object} models.APIError "Sync manager not configured"
// @Router /sync/status [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Sync manager not available", nil)
		return
	}
	status := h.sync.Status()
	if status == nil {
		status = []models.SchedulerStatus{}
	}
	respondJSON(w, http.StatusOK, status)
}

// TriggerSync queues an immediate run of one scheduler.
//
// @Summary Force a sync
// @Description Queues an immediate tick of devices, positions or alarms. A tick already queued is not queued twice.
// @Tags Sync
// @Produce json
// @Param scheduler path string true "devices, positions or alarms"
// @Success 202 {object} models.SyncAccepted
// @Failure 404 {object} models.APIError "Unknown scheduler"
// @Failure 409 {object} models.APIError "Scheduler is running"
// @Failure 503 {object} models.APIError "Sync manager not running"
// @Router /sync/{scheduler} [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Sync manager not available", nil)
		return
	}

	name := chi.URLParam(r, "scheduler")
	err := h.sync.Trigger(name)
	switch {
	case err == nil:
	case errors.Is(err, sync.ErrUnknownScheduler):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown scheduler "+sanitizeLogValue(name), nil)
		return
	case errors.Is(err, sync.ErrSyncInProgress):
		respondError(w, http.StatusConflict, ErrCodeSyncInProgress, "A "+name+" sync is already in progress", nil)
		return
	case errors.Is(err, sync.ErrNotRunning):
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Sync manager is not running", nil)
		return
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to trigger sync", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("scheduler", name).Msg("Forced sync queued")
	respondJSON(w, http.StatusAccepted, models.SyncAccepted{Scheduler: name, Status: "queued"})
}
