// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"strings"
	"time"
)

// UnknownLicense is stored when the vendor does not report a plate number.
const UnknownLicense = "Unknown"

// Device is a tracked terminal (MDVR) as reported by the vendor registry.
// Terid is the natural key.
type Device struct {
	Terid          string    `json:"terid"`
	CarLicense     string    `json:"car_license"`
	SIM            string    `json:"sim"`
	Channel        int       `json:"channel"`
	PlateColor     int       `json:"plate_color"`
	GroupID        int64     `json:"group_id"`
	CName          string    `json:"cname"`
	DeviceType     string    `json:"device_type"`
	LinkType       string    `json:"link_type"`
	DeviceUsername string    `json:"device_username"`
	DevicePassword string    `json:"-"`
	RegisterIP     string    `json:"register_ip"`
	RegisterPort   int       `json:"register_port"`
	TransmitIP     string    `json:"transmit_ip"`
	TransmitPort   int       `json:"transmit_port"`
	ChannelEnable  int64     `json:"channel_enable"`
	CompanyBranch  string    `json:"company_branch"`
	CompanyName    string    `json:"company_name"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Normalize applies storage defaults: trimmed identifiers and a placeholder plate.
func (d *Device) Normalize() {
	d.Terid = strings.TrimSpace(d.Terid)
	d.CarLicense = strings.TrimSpace(d.CarLicense)
	if d.CarLicense == "" {
		d.CarLicense = UnknownLicense
	}
}

// DeviceGroup is a node of the vendor's fleet hierarchy.
type DeviceGroup struct {
	GroupID     int64     `json:"group_id"`
	GroupName   string    `json:"group_name"`
	ParentID    int64     `json:"parent_id"`
	LastUpdated time.Time `json:"last_updated"`
}

// DeviceFilter narrows ListDevices. A nil GroupID matches every group.
type DeviceFilter struct {
	GroupID *int64
	Limit   int
}
