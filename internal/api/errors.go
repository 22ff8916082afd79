// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/fleetwatch/internal/database"
)

// Error codes carried in the "error" field of failure responses.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeSyncInProgress     = "SYNC_IN_PROGRESS"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// respondStoreError maps a storage error onto 404 or 500.
func respondStoreError(w http.ResponseWriter, err error, notFoundMessage, failureMessage string) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, notFoundMessage, nil)
		return
	}
	respondError(w, http.StatusInternalServerError, ErrCodeDatabase, failureMessage, err)
}
