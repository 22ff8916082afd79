// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import "time"

// Alarm is one alarm event raised by a terminal. Events are immutable;
// (Terid, GPSTime, AlarmType, ServerTime) identifies an event.
type Alarm struct {
	ID          int64     `json:"id"`
	Terid       string    `json:"terid"`
	GPSTime     time.Time `json:"gps_time"`
	Altitude    int       `json:"altitude"`
	Direction   int       `json:"direction"`
	Latitude    float64   `json:"gps_lat"`
	Longitude   float64   `json:"gps_lng"`
	Speed       float64   `json:"speed"`
	RecordSpeed float64   `json:"record_speed"`
	State       int       `json:"state"`
	ServerTime  time.Time `json:"server_time"`
	AlarmType   int       `json:"alarm_type"`
	Content     string    `json:"alarm_content"`
	CmdType     int       `json:"cmd_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertResult reports what InsertAlarmIfNew did.
type InsertResult int

const (
	Inserted InsertResult = iota + 1
	Duplicate
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Alarm query limits.
const (
	DefaultAlarmLimit = 1000
	MaxAlarmLimit     = 10000
)

// AlarmFilter narrows QueryAlarms. Zero times leave that side of the window
// open, and empty slices match everything.
type AlarmFilter struct {
	Start  time.Time
	End    time.Time
	Terids []string
	Types  []int
	Limit  int
}

// EffectiveLimit clamps Limit to [1, MaxAlarmLimit], defaulting to DefaultAlarmLimit.
func (f AlarmFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultAlarmLimit
	case f.Limit > MaxAlarmLimit:
		return MaxAlarmLimit
	default:
		return f.Limit
	}
}

// AlarmView is an alarm with its type name and device plate, as listed by the API.
type AlarmView struct {
	Alarm
	TypeName   string `json:"type_name"`
	CarLicense string `json:"car_license"`
}

// AlarmDetail is a single alarm together with its device.
type AlarmDetail struct {
	Alarm
	TypeName string  `json:"type_name"`
	Device   *Device `json:"device,omitempty"`
}

// HeatmapPoint is one weighted point of the alarm heatmap.
type HeatmapPoint struct {
	ID         int64     `json:"id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Intensity  float64   `json:"intensity"`
	Terid      string    `json:"terid"`
	CarLicense string    `json:"car_license"`
	AlarmType  int       `json:"alarm_type"`
	TypeName   string    `json:"type_name"`
	GPSTime    time.Time `json:"gps_time"`
	Speed      float64   `json:"speed"`
}

// NewHeatmapPoint builds a heatmap point weighted by alarm type.
func NewHeatmapPoint(a *AlarmView) HeatmapPoint {
	return HeatmapPoint{
		ID:         a.ID,
		Lat:        a.Latitude,
		Lng:        a.Longitude,
		Intensity:  AlarmIntensity(a.AlarmType),
		Terid:      a.Terid,
		CarLicense: a.CarLicense,
		AlarmType:  a.AlarmType,
		TypeName:   AlarmTypeName(a.AlarmType),
		GPSTime:    a.GPSTime,
		Speed:      a.Speed,
	}
}
