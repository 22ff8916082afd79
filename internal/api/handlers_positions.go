// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Positions returns the latest fix of every device with its derived status.
//
// @Summary List current positions
// @Description Returns the latest position per device. Status is moving, stopped or offline, derived from fix age and speed.
// @Tags Positions
// @Produce json
// @Param terid query string false "Comma separated device IDs"
// @Param status query string false "moving, stopped or offline"
// @Param limit query int false "Maximum positions to return"
// @Success 200 {array} models.PositionView
// @Failure 400 {object} models.APIError "Invalid parameters"
// @Failure 500 {object} models.APIError "Database error"
// @Router /gps/positions [get]
func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	defaultLimit, maxLimit := h.apiLimits()
	filter, verr := parsePositionsRequest(r).Filter(defaultLimit, maxLimit)
	if verr != nil {
		respondValidationError(w, verr)
		return
	}

	positions, err := h.store.QueryPositions(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to query positions", err)
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// Position returns the latest fix of one device.
//
// @Summary Get a device position
// @Tags Positions
// @Produce json
// @Param terid path string true "Device ID"
// @Success 200 {object} models.PositionView
// @Failure 404 {object} models.APIError "No position for this device"
// @Failure 500 {object} models.APIError "Database error"
// @Router /gps/position/{terid} [get]
func (h *Handler) Position(w http.ResponseWriter, r *http.Request) {
	terid := chi.URLParam(r, "terid")

	position, err := h.store.GetPosition(r.Context(), terid)
	if err != nil {
		respondStoreError(w, err, "No position for device "+sanitizeLogValue(terid), "Failed to get position")
		return
	}
	respondJSON(w, http.StatusOK, position)
}
