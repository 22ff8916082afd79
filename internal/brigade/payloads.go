// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package brigade

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// VendorTimeLayout is the timestamp format used in vendor requests and responses.
const VendorTimeLayout = "2006-01-02 15:04:05"

// envelope is the common vendor response wrapper.
type envelope struct {
	ErrorCode flexInt         `json:"errorcode"`
	Message   flexString      `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// flexString accepts JSON strings and numbers.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	*s = flexString(b)
	return nil
}

// flexInt accepts JSON numbers, numeric strings, empty strings and null.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	if v, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		*n = flexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", string(s))
	}
	*n = flexInt(f)
	return nil
}

// flexFloat accepts JSON numbers, numeric strings, empty strings and null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", string(s))
	}
	*f = flexFloat(v)
	return nil
}

// parseVendorTime parses a vendor timestamp in loc and returns it in UTC.
func parseVendorTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.ParseInLocation(VendorTimeLayout, s, loc); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t.UTC(), nil
}

// formatVendorTime formats t in loc for request bodies.
func formatVendorTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(VendorTimeLayout)
}

// splitRecords decodes data as an array and returns its raw elements.
// A null or missing data field is an empty list.
func splitRecords(data json.RawMessage) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("data is not an array: %w", err)
	}
	return records, nil
}

type rawDevice struct {
	Terid          flexString `json:"terid"`
	DeviceID       flexString `json:"deviceid"`
	CarLicence     flexString `json:"carlicence"`
	CarLicense     flexString `json:"carlicense"`
	SIM            flexString `json:"sim"`
	Channel        flexInt    `json:"channel"`
	ChannelCount   flexInt    `json:"channelcount"`
	PlateColor     flexInt    `json:"platecolor"`
	GroupID        flexInt    `json:"groupid"`
	CName          flexString `json:"cname"`
	DeviceType     flexString `json:"devicetype"`
	LinkType       flexString `json:"linktype"`
	DeviceUsername flexString `json:"deviceusername"`
	DevicePassword flexString `json:"devicepassword"`
	RegisterIP     flexString `json:"registerip"`
	RegisterPort   flexInt    `json:"registerport"`
	TransmitIP     flexString `json:"transmitip"`
	TransmitPort   flexInt    `json:"transmitport"`
	En             flexInt    `json:"en"`
	CompanyBranch  flexString `json:"companybranch"`
	CompanyName    flexString `json:"companyname"`
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

func firstNonZero(values ...flexInt) int64 {
	for _, v := range values {
		if v != 0 {
			return int64(v)
		}
	}
	return 0
}

// parseDevices converts the devices payload. Records without a terminal id or
// that fail to decode are skipped and counted.
func parseDevices(data json.RawMessage) ([]models.Device, int, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, 0, err
	}

	devices := make([]models.Device, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var r rawDevice
		if err := json.Unmarshal(rec, &r); err != nil {
			skipped++
			continue
		}
		d := models.Device{
			Terid:          firstNonEmpty(r.Terid, r.DeviceID),
			CarLicense:     firstNonEmpty(r.CarLicence, r.CarLicense),
			SIM:            string(r.SIM),
			Channel:        int(firstNonZero(r.Channel, r.ChannelCount)),
			PlateColor:     int(r.PlateColor),
			GroupID:        int64(r.GroupID),
			CName:          string(r.CName),
			DeviceType:     string(r.DeviceType),
			LinkType:       string(r.LinkType),
			DeviceUsername: string(r.DeviceUsername),
			DevicePassword: string(r.DevicePassword),
			RegisterIP:     string(r.RegisterIP),
			RegisterPort:   int(r.RegisterPort),
			TransmitIP:     string(r.TransmitIP),
			TransmitPort:   int(r.TransmitPort),
			ChannelEnable:  int64(r.En),
			CompanyBranch:  string(r.CompanyBranch),
			CompanyName:    string(r.CompanyName),
		}
		d.Normalize()
		if d.Terid == "" {
			skipped++
			continue
		}
		devices = append(devices, d)
	}
	return devices, skipped, nil
}

type rawGroup struct {
	GroupID   flexInt    `json:"groupid"`
	GroupName flexString `json:"groupname"`
	ParentID  flexInt    `json:"parentid"`
}

func parseGroups(data json.RawMessage) ([]models.DeviceGroup, int, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, 0, err
	}

	groups := make([]models.DeviceGroup, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var r rawGroup
		if err := json.Unmarshal(rec, &r); err != nil || r.GroupID == 0 {
			skipped++
			continue
		}
		groups = append(groups, models.DeviceGroup{
			GroupID:   int64(r.GroupID),
			GroupName: string(r.GroupName),
			ParentID:  int64(r.ParentID),
		})
	}
	return groups, skipped, nil
}

type rawPosition struct {
	Terid       flexString `json:"terid"`
	GPSTime     flexString `json:"gpstime"`
	Lat         flexFloat  `json:"gpslat"`
	Lng         flexFloat  `json:"gpslng"`
	Altitude    flexInt    `json:"altitude"`
	Speed       flexFloat  `json:"speed"`
	RecordSpeed flexFloat  `json:"recordspeed"`
	Direction   flexInt    `json:"direction"`
	State       flexInt    `json:"state"`
	Address     flexString `json:"address"`
}

// parsePositions converts the last-position payload. Records without a
// terminal id or a parseable GPS time are skipped. Coordinates are not
// checked here.
func parsePositions(data json.RawMessage, loc *time.Location) ([]models.Position, int, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, 0, err
	}

	positions := make([]models.Position, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var r rawPosition
		if err := json.Unmarshal(rec, &r); err != nil || r.Terid == "" {
			skipped++
			continue
		}
		gpsTime, err := parseVendorTime(string(r.GPSTime), loc)
		if err != nil {
			skipped++
			continue
		}
		positions = append(positions, models.Position{
			Terid:       string(r.Terid),
			Latitude:    float64(r.Lat),
			Longitude:   float64(r.Lng),
			Altitude:    int(r.Altitude),
			Speed:       float64(r.Speed),
			RecordSpeed: float64(r.RecordSpeed),
			Direction:   int(r.Direction),
			State:       int(r.State),
			GPSTime:     gpsTime,
			Address:     string(r.Address),
		})
	}
	return positions, skipped, nil
}

type rawAlarm struct {
	Terid       flexString `json:"terid"`
	GPSTime     flexString `json:"gpstime"`
	Altitude    flexInt    `json:"altitude"`
	Direction   flexInt    `json:"direction"`
	Lat         flexFloat  `json:"gpslat"`
	Lng         flexFloat  `json:"gpslng"`
	Speed       flexFloat  `json:"speed"`
	RecordSpeed flexFloat  `json:"recordspeed"`
	State       flexInt    `json:"state"`
	Time        flexString `json:"time"`
	Type        flexInt    `json:"type"`
	Content     flexString `json:"content"`
	CmdType     flexInt    `json:"cmdtype"`
}

// parseAlarms converts the alarm detail payload. The server time defaults to
// the GPS time when the vendor omits it.
func parseAlarms(data json.RawMessage, loc *time.Location) ([]models.Alarm, int, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, 0, err
	}

	alarms := make([]models.Alarm, 0, len(records))
	skipped := 0
	for _, rec := range records {
		var r rawAlarm
		if err := json.Unmarshal(rec, &r); err != nil || r.Terid == "" {
			skipped++
			continue
		}
		gpsTime, err := parseVendorTime(string(r.GPSTime), loc)
		if err != nil {
			skipped++
			continue
		}
		serverTime := gpsTime
		if r.Time != "" {
			if st, err := parseVendorTime(string(r.Time), loc); err == nil {
				serverTime = st
			}
		}
		alarms = append(alarms, models.Alarm{
			Terid:       string(r.Terid),
			GPSTime:     gpsTime,
			Altitude:    int(r.Altitude),
			Direction:   int(r.Direction),
			Latitude:    float64(r.Lat),
			Longitude:   float64(r.Lng),
			Speed:       float64(r.Speed),
			RecordSpeed: float64(r.RecordSpeed),
			State:       int(r.State),
			ServerTime:  serverTime,
			AlarmType:   int(r.Type),
			Content:     string(r.Content),
			CmdType:     int(r.CmdType),
		})
	}
	return alarms, skipped, nil
}
