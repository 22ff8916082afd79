// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// Alarms lists alarms in a time window, newest first.
//
// @Summary List alarms
// @Description Without start or hours the window is the last 24 hours. Dates accept RFC3339, YYYY-MM-DD HH:MM:SS or YYYY-MM-DD; dates without a zone are read in brigade.time_zone.
// @Tags Alarms
// @Produce json
// @Param start query string false "Window start"
// @Param end query string false "Window end (default now)"
// @Param hours query int false "Look-back in hours when start is absent"
// @Param terid query string false "Comma separated device IDs"
// @Param type query string false "Comma separated alarm type codes"
// @Param limit query int false "Maximum alarms to return"
// @Success 200 {array} models.AlarmView
// @Failure 400 {object} models.APIError "Invalid parameters"
// @Failure 500 {object} models.APIError "Database error"
// @Router /alarms [get]
func (h *Handler) Alarms(w http.ResponseWriter, r *http.Request) {
	alarms, ok := h.queryAlarms(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, alarms)
}

// AlarmsHeatmap returns alarm locations weighted by alarm type.
//
// @Summary Alarm heatmap
// @Description Same filters as /alarms. Alarms without a fix or with out-of-range coordinates are skipped.
// @Tags Alarms
// @Produce json
// @Param start query string false "Window start"
// @Param end query string false "Window end (default now)"
// @Param hours query int false "Look-back in hours when start is absent"
// @Param terid query string false "Comma separated device IDs"
// @Param type query string false "Comma separated alarm type codes"
// @Param limit query int false "Maximum alarms to consider"
// @Success 200 {array} models.HeatmapPoint
// @Failure 400 {object} models.APIError "Invalid parameters"
// @Failure 500 {object} models.APIError "Database error"
// @Router /alarms/heatmap [get]
func (h *Handler) AlarmsHeatmap(w http.ResponseWriter, r *http.Request) {
	alarms, ok := h.queryAlarms(w, r)
	if !ok {
		return
	}

	points := make([]models.HeatmapPoint, 0, len(alarms))
	for i := range alarms {
		a := &alarms[i]
		if a.Latitude == 0 && a.Longitude == 0 {
			continue
		}
		if models.ValidateCoordinates(a.Latitude, a.Longitude) != nil {
			continue
		}
		points = append(points, models.NewHeatmapPoint(a))
	}
	respondJSON(w, http.StatusOK, points)
}

// queryAlarms validates the alarm filters and runs the query. It writes the
// error response itself and reports false when the caller should stop.
func (h *Handler) queryAlarms(w http.ResponseWriter, r *http.Request) ([]models.AlarmView, bool) {
	defaultLimit, maxLimit := h.apiLimits()
	filter, verr := parseAlarmsRequest(r).Filter(h.now(), h.location(), defaultLimit, maxLimit)
	if verr != nil {
		respondValidationError(w, verr)
		return nil, false
	}

	alarms, err := h.store.QueryAlarms(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to query alarms", err)
		return nil, false
	}
	if alarms == nil {
		alarms = []models.AlarmView{}
	}
	return alarms, true
}

// Alarm returns one alarm together with its device.
//
// @Summary Get an alarm
// @Tags Alarms
// @Produce json
// @Param id path int true "Alarm ID"
// @Success 200 {object} models.AlarmDetail
// @Failure 400 {object} models.APIError "Non-numeric ID"
// @Failure 404 {object} models.APIError "Unknown alarm"
// @Failure 500 {object} models.APIError "Database error"
// @Router /alarm/{id} [get]
func (h *Handler) Alarm(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Alarm id must be numeric", nil)
		return
	}

	alarm, err := h.store.GetAlarm(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Alarm "+raw+" not found", "Failed to get alarm")
		return
	}
	respondJSON(w, http.StatusOK, alarm)
}

// AlarmTypes returns alarm counts per type, largest first.
//
// @Summary Alarm type counts
// @Tags Alarms
// @Produce json
// @Success 200 {array} models.AlarmTypeCount
// @Failure 500 {object} models.APIError "Database error"
// @Router /alarm-types [get]
func (h *Handler) AlarmTypes(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.AlarmTypeCounts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to count alarm types", err)
		return
	}
	if counts == nil {
		counts = []models.AlarmTypeCount{}
	}
	respondJSON(w, http.StatusOK, counts)
}

// Stats returns fleet-wide aggregates.
//
// @Summary Fleet statistics
// @Description Totals, alarms in the last 24 hours, counts by type, top devices, hourly buckets and position status counts
// @Tags Alarms
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 500 {object} models.APIError "Database error"
// @Router /stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context(), h.now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to compute statistics", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
