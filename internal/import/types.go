// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package legacyimport

import (
	"time"
)

// LegacyDevice is a row of the legacy devices table.
type LegacyDevice struct {
	Terid          string
	CarLicense     string
	SIM            string
	Channel        int
	PlateColor     int
	GroupID        int64
	CName          string
	DeviceType     string
	LinkType       string
	DeviceUsername string
	DevicePassword string
	RegisterIP     string
	RegisterPort   int
	TransmitIP     string
	TransmitPort   int
	ChannelEnable  int64
	CompanyBranch  string
	CompanyName    string
}

// LegacyPosition is a row of the legacy gps table (one per device).
type LegacyPosition struct {
	Terid       string
	GPSTime     string
	Latitude    float64
	Longitude   float64
	Altitude    int
	Speed       float64
	RecordSpeed float64
	Direction   int
	State       int
	Address     string
}

// LegacyAlarm is a row of the legacy alarms table. Times are kept as the
// stored text and parsed by the Mapper.
type LegacyAlarm struct {
	ID          int64
	Terid       string
	GPSTime     string
	Altitude    int
	Direction   int
	Latitude    float64
	Longitude   float64
	Speed       float64
	RecordSpeed float64
	State       int
	ServerTime  string
	AlarmType   int
	Content     string
	CmdType     int
}

// TableStats counts the outcome of every row read from one table.
type TableStats struct {
	Read     int64 `json:"read"`
	Imported int64 `json:"imported"`
	Skipped  int64 `json:"skipped"`
	Failed   int64 `json:"failed"`
}

// ImportStats holds statistics about an import operation.
type ImportStats struct {
	Devices   TableStats `json:"devices"`
	Positions TableStats `json:"positions"`
	Alarms    TableStats `json:"alarms"`

	// TotalAlarms is the number of alarm rows in the source database.
	TotalAlarms int64 `json:"total_alarms"`

	// LastAlarmID is the id of the last alarm batch that completed.
	LastAlarmID int64 `json:"last_alarm_id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	DryRun    bool      `json:"dry_run"`
}

// Duration returns the duration of the import operation.
func (s *ImportStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns the alarm import progress as a percentage (0-100).
func (s *ImportStats) Progress() float64 {
	if s.TotalAlarms == 0 {
		return 0
	}
	return float64(s.Alarms.Read) / float64(s.TotalAlarms) * 100
}

// AlarmsPerSecond returns the alarm import rate.
func (s *ImportStats) AlarmsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Alarms.Read) / duration
}
