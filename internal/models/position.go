// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"fmt"
	"time"
)

// PositionStatus is derived at query time from the age and speed of a fix.
type PositionStatus string

const (
	StatusMoving  PositionStatus = "moving"
	StatusStopped PositionStatus = "stopped"
	StatusOffline PositionStatus = "offline"
)

// MovingSpeedThreshold is the speed (km/h) above which a device counts as moving.
const MovingSpeedThreshold = 5.0

// DefaultOfflineThreshold is the fix age after which a device counts as offline.
const DefaultOfflineThreshold = 30 * time.Minute

// Position is the latest known fix of a device. There is at most one per Terid.
type Position struct {
	Terid       string    `json:"terid"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Altitude    int       `json:"altitude"`
	Speed       float64   `json:"speed"`
	RecordSpeed float64   `json:"record_speed"`
	Direction   int       `json:"direction"`
	State       int       `json:"state"`
	GPSTime     time.Time `json:"gps_time"`
	Address     string    `json:"address,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasFix reports whether the coordinates are a real fix. Terminals without
// satellite lock report (0, 0).
func (p *Position) HasFix() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes outside [-180, 180].
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}

// DerivePositionStatus classifies a fix. A fix older than offlineAfter is
// offline regardless of speed; otherwise a speed above MovingSpeedThreshold is moving.
func DerivePositionStatus(gpsTime time.Time, speed float64, now time.Time, offlineAfter time.Duration) PositionStatus {
	if offlineAfter <= 0 {
		offlineAfter = DefaultOfflineThreshold
	}
	if now.Sub(gpsTime) > offlineAfter {
		return StatusOffline
	}
	if speed > MovingSpeedThreshold {
		return StatusMoving
	}
	return StatusStopped
}

// PositionView is a position joined with its device metadata and derived status,
// as served by the positions endpoints.
type PositionView struct {
	Position
	CarLicense  string         `json:"car_license"`
	GroupID     int64          `json:"group_id"`
	CompanyName string         `json:"company_name"`
	Status      PositionStatus `json:"status"`
}

// PositionFilter narrows QueryPositions. An empty Terids slice matches every
// device and an empty Status matches every status. Limit applies after both.
type PositionFilter struct {
	Terids []string
	Status PositionStatus
	Limit  int
}
