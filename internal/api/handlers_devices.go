// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"net/http"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// Devices lists registered devices, most recently updated first.
//
// @Summary List devices
// @Description Returns devices with plate and company, ordered by last_updated descending
// @Tags Devices
// @Produce json
// @Param group_id query int false "Only devices of this group"
// @Param limit query int false "Maximum devices to return"
// @Success 200 {array} models.Device
// @Failure 400 {object} models.APIError "Invalid parameters"
// @Failure 500 {object} models.APIError "Database error"
// @Router /devices [get]
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	defaultLimit, maxLimit := h.apiLimits()
	filter, verr := parseDevicesRequest(r).Filter(defaultLimit, maxLimit)
	if verr != nil {
		respondValidationError(w, verr)
		return
	}

	devices, err := h.store.ListDevices(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to list devices", err)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	respondJSON(w, http.StatusOK, devices)
}

// DeviceGroups lists the device groups.
//
// @Summary List device groups
// @Tags Devices
// @Produce json
// @Success 200 {array} models.DeviceGroup
// @Failure 500 {object} models.APIError "Database error"
// @Router /device-groups [get]
func (h *Handler) DeviceGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListDeviceGroups(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabase, "Failed to list device groups", err)
		return
	}
	if groups == nil {
		groups = []models.DeviceGroup{}
	}
	respondJSON(w, http.StatusOK, groups)
}
