// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package models defines the data structures shared by Fleetwatch components.

Key Components:

  - Device, DeviceGroup: the vendor device registry as stored locally
  - Position: the latest known fix of a device (one row per device)
  - Alarm: an immutable alarm event, unique per (terid, gps_time, type, server_time)
  - Stats, AlarmTypeCount, HeatmapPoint: aggregates served by the query API
  - SchedulerStatus: the observable state of a sync scheduler
  - APIError: the error body of every failing HTTP response

The alarm type catalogue (AlarmTypeName, AlarmIntensity) maps vendor alarm
codes to display names and heatmap weights.
*/
package models
