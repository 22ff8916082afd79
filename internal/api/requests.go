// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Query parameter structs validated with go-playground/validator tags.
// Numbers are kept as strings so that "limit=abc" is reported as a
// validation error instead of silently falling back to the default.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/validation"
)

// DefaultAlarmWindow is the look-back used when neither start nor hours is given.
const DefaultAlarmWindow = 24 * time.Hour

// maxAlarmHours caps the hours parameter at one year.
const maxAlarmHours = 8760

// AlarmsRequest holds the query parameters of /api/alarms and /api/alarms/heatmap.
type AlarmsRequest struct {
	Start string `query:"start" validate:"omitempty,flextime"`
	End   string `query:"end" validate:"omitempty,flextime"`
	Hours string `query:"hours" validate:"omitempty,numeric"`
	Terid string `query:"terid" validate:"omitempty,idlist"`
	Type  string `query:"type" validate:"omitempty,intlist"`
	Limit string `query:"limit" validate:"omitempty,numeric"`
}

func parseAlarmsRequest(r *http.Request) AlarmsRequest {
	q := r.URL.Query()
	return AlarmsRequest{
		Start: q.Get("start"),
		End:   q.Get("end"),
		Hours: q.Get("hours"),
		Terid: q.Get("terid"),
		Type:  q.Get("type"),
		Limit: q.Get("limit"),
	}
}

// Filter validates the request and resolves it into a store filter.
//
// An explicit start wins over hours; a start without end runs until now.
// Without either the window is the last DefaultAlarmWindow. Dates without a
// zone are wall-clock times in loc, the vendor time zone.
func (req AlarmsRequest) Filter(now time.Time, loc *time.Location, defaultLimit, maxLimit int) (models.AlarmFilter, *validation.RequestValidationError) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return models.AlarmFilter{}, verr
	}

	var filter models.AlarmFilter
	now = now.UTC()

	switch {
	case req.Start != "":
		filter.Start, _ = validation.ParseTimeIn(req.Start, loc)
		filter.End = now
		if req.End != "" {
			filter.End, _ = validation.ParseTimeIn(req.End, loc)
		}
	case req.Hours != "":
		hours, _ := strconv.Atoi(req.Hours)
		if hours < 1 || hours > maxAlarmHours {
			return filter, validation.NewRequestValidationError("hours", "range",
				"hours must be between 1 and "+strconv.Itoa(maxAlarmHours))
		}
		filter.Start = now.Add(-time.Duration(hours) * time.Hour)
		filter.End = now
		if req.End != "" {
			filter.End, _ = validation.ParseTimeIn(req.End, loc)
		}
	default:
		filter.Start = now.Add(-DefaultAlarmWindow)
		filter.End = now
		if req.End != "" {
			filter.End, _ = validation.ParseTimeIn(req.End, loc)
			filter.Start = filter.End.Add(-DefaultAlarmWindow)
		}
	}

	if filter.Start.After(filter.End) {
		return filter, validation.NewRequestValidationError("start", "ltefield", "start must be before end")
	}

	if req.Terid != "" {
		filter.Terids = validation.ParseIDList(req.Terid)
	}
	if req.Type != "" {
		filter.Types, _ = validation.ParseIntList(req.Type)
	}

	limit, verr := parseLimit(req.Limit)
	if verr != nil {
		return filter, verr
	}
	filter.Limit = clampLimit(limit, defaultLimit, maxLimit)
	return filter, nil
}

// PositionsRequest holds the query parameters of /api/gps/positions.
type PositionsRequest struct {
	Terid  string `query:"terid" validate:"omitempty,idlist"`
	Status string `query:"status" validate:"omitempty,oneof=moving stopped offline"`
	Limit  string `query:"limit" validate:"omitempty,numeric"`
}

func parsePositionsRequest(r *http.Request) PositionsRequest {
	q := r.URL.Query()
	return PositionsRequest{
		Terid:  q.Get("terid"),
		Status: q.Get("status"),
		Limit:  q.Get("limit"),
	}
}

// Filter validates the request and resolves it into a store filter.
func (req PositionsRequest) Filter(defaultLimit, maxLimit int) (models.PositionFilter, *validation.RequestValidationError) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return models.PositionFilter{}, verr
	}

	filter := models.PositionFilter{Status: models.PositionStatus(req.Status)}
	if req.Terid != "" {
		filter.Terids = validation.ParseIDList(req.Terid)
	}

	limit, verr := parseLimit(req.Limit)
	if verr != nil {
		return filter, verr
	}
	filter.Limit = clampLimit(limit, defaultLimit, maxLimit)
	return filter, nil
}

// DevicesRequest holds the query parameters of /api/devices.
type DevicesRequest struct {
	GroupID string `query:"group_id" validate:"omitempty,numeric"`
	Limit   string `query:"limit" validate:"omitempty,numeric"`
}

func parseDevicesRequest(r *http.Request) DevicesRequest {
	q := r.URL.Query()
	return DevicesRequest{
		GroupID: q.Get("group_id"),
		Limit:   q.Get("limit"),
	}
}

// Filter validates the request and resolves it into a store filter.
func (req DevicesRequest) Filter(defaultLimit, maxLimit int) (models.DeviceFilter, *validation.RequestValidationError) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return models.DeviceFilter{}, verr
	}

	var filter models.DeviceFilter
	if req.GroupID != "" {
		id, err := strconv.ParseInt(req.GroupID, 10, 64)
		if err != nil {
			return filter, validation.NewRequestValidationError("group_id", "numeric", "group_id must be numeric")
		}
		filter.GroupID = &id
	}

	limit, verr := parseLimit(req.Limit)
	if verr != nil {
		return filter, verr
	}
	filter.Limit = clampLimit(limit, defaultLimit, maxLimit)
	return filter, nil
}

// parseLimit reads an already numeric-validated limit. Zero means unset.
func parseLimit(s string) (int, *validation.RequestValidationError) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, validation.NewRequestValidationError("limit", "min", "limit must be at least 1")
	}
	return n, nil
}
