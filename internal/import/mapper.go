// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package legacyimport

import (
	"strings"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// Skip reasons reported in metrics and logs.
const (
	SkipMissingTerid = "missing_terid"
	SkipBadTime      = "bad_time"
	SkipNoFix        = "no_fix"
	SkipOutOfRange   = "out_of_range"
	SkipUnknownDev   = "unknown_device"
)

// legacyTimeLayouts are the formats found in legacy databases, tried in
// order. Times without a zone are UTC.
var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Mapper converts legacy rows into models, rejecting rows the store would refuse.
type Mapper struct{}

// NewMapper creates a new field mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ToDevice converts a device row. It returns a skip reason when the row
// has no terid.
func (m *Mapper) ToDevice(rec *LegacyDevice) (*models.Device, string) {
	if strings.TrimSpace(rec.Terid) == "" {
		return nil, SkipMissingTerid
	}

	d := &models.Device{
		Terid:          rec.Terid,
		CarLicense:     rec.CarLicense,
		SIM:            rec.SIM,
		Channel:        rec.Channel,
		PlateColor:     rec.PlateColor,
		GroupID:        rec.GroupID,
		CName:          rec.CName,
		DeviceType:     rec.DeviceType,
		LinkType:       rec.LinkType,
		DeviceUsername: rec.DeviceUsername,
		DevicePassword: rec.DevicePassword,
		RegisterIP:     rec.RegisterIP,
		RegisterPort:   rec.RegisterPort,
		TransmitIP:     rec.TransmitIP,
		TransmitPort:   rec.TransmitPort,
		ChannelEnable:  rec.ChannelEnable,
		CompanyBranch:  rec.CompanyBranch,
		CompanyName:    rec.CompanyName,
	}
	d.Normalize()
	return d, ""
}

// ToPosition converts a gps row. Rows without a satellite fix or with
// coordinates outside the valid range are skipped.
func (m *Mapper) ToPosition(rec *LegacyPosition) (*models.Position, string) {
	terid := strings.TrimSpace(rec.Terid)
	if terid == "" {
		return nil, SkipMissingTerid
	}
	gpsTime, ok := parseLegacyTime(rec.GPSTime)
	if !ok {
		return nil, SkipBadTime
	}

	p := &models.Position{
		Terid:       terid,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Altitude:    rec.Altitude,
		Speed:       rec.Speed,
		RecordSpeed: rec.RecordSpeed,
		Direction:   rec.Direction,
		State:       rec.State,
		GPSTime:     gpsTime,
		Address:     rec.Address,
	}
	if !p.HasFix() {
		return nil, SkipNoFix
	}
	if models.ValidateCoordinates(p.Latitude, p.Longitude) != nil {
		return nil, SkipOutOfRange
	}
	return p, ""
}

// ToAlarm converts an alarm row. Alarms keep their coordinates even without
// a fix; the heatmap filters those at query time.
func (m *Mapper) ToAlarm(rec *LegacyAlarm) (*models.Alarm, string) {
	terid := strings.TrimSpace(rec.Terid)
	if terid == "" {
		return nil, SkipMissingTerid
	}
	gpsTime, ok := parseLegacyTime(rec.GPSTime)
	if !ok {
		return nil, SkipBadTime
	}
	serverTime, ok := parseLegacyTime(rec.ServerTime)
	if !ok {
		serverTime = gpsTime
	}

	return &models.Alarm{
		Terid:       terid,
		GPSTime:     gpsTime,
		Altitude:    rec.Altitude,
		Direction:   rec.Direction,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Speed:       rec.Speed,
		RecordSpeed: rec.RecordSpeed,
		State:       rec.State,
		ServerTime:  serverTime,
		AlarmType:   rec.AlarmType,
		Content:     rec.Content,
		CmdType:     rec.CmdType,
	}, ""
}

func parseLegacyTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
