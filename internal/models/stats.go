// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"time"
)

// Stats represents the dashboard aggregates.
type Stats struct {
	TotalAlarms      int64            `json:"total_alarms"`
	TotalDevices     int64            `json:"total_devices"`
	TotalPositions   int64            `json:"total_positions"`
	AlarmsLast24h    int64            `json:"alarms_last_24h"`
	ByType           []AlarmTypeCount `json:"by_type"`
	TopDevices       []DeviceCount    `json:"top_devices"`
	Hourly           []HourBucket     `json:"hourly"`
	MostActiveDevice *DeviceCount     `json:"most_active_device,omitempty"`
	PositionStatus   StatusCounts     `json:"position_status"`
	LastUpdated      *time.Time       `json:"last_updated,omitempty"`
}

// DeviceCount is the number of alarms raised by one device.
type DeviceCount struct {
	Terid      string `json:"terid"`
	CarLicense string `json:"car_license"`
	Count      int64  `json:"count"`
}

// HourBucket is the alarm count for the hour starting at Hour (UTC).
type HourBucket struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}

// StatusCounts tallies current positions by derived status.
type StatusCounts struct {
	Moving  int64 `json:"moving"`
	Stopped int64 `json:"stopped"`
	Offline int64 `json:"offline"`
}

// Add counts one position of the given status.
func (s *StatusCounts) Add(status PositionStatus) {
	switch status {
	case StatusMoving:
		s.Moving++
	case StatusStopped:
		s.Stopped++
	case StatusOffline:
		s.Offline++
	}
}
