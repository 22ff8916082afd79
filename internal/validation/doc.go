// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package validation provides struct validation using go-playground/validator v10.
// It holds a thread-safe singleton validator with the custom rules used by the
// query parameters of the REST API.
//
// Custom tags:
//   - flextime: RFC3339, "2006-01-02 15:04:05" or "2006-01-02"
//   - intlist:  comma separated integers ("1,12,203")
//   - idlist:   comma separated identifiers without empty items ("T1,T2")
//
// Example usage:
//
//	type AlarmsRequest struct {
//	    Start string `validate:"omitempty,flextime"`
//	    Types string `validate:"omitempty,intlist"`
//	    Limit int    `validate:"min=0,max=10000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Error Format
//
// ToAPIError produces the VALIDATION_ERROR code served as
// {"error": "VALIDATION_ERROR", "message": "..."} with HTTP 400. Field names
// in messages are the query parameter names taken from the `query` struct tag.
//
// # Thread Safety
//
// The validator is built once and is safe for concurrent use.
package validation
