// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"time"
)

// APIError is the body of every failing response:
//
//	{"error": "VALIDATION_ERROR", "message": "start must be before end"}
//
// Common error codes:
//   - VALIDATION_ERROR: invalid query parameters (400)
//   - NOT_FOUND: unknown device, alarm or scheduler (404)
//   - SYNC_IN_PROGRESS: forced sync while the scheduler is running (409)
//   - RATE_LIMIT_EXCEEDED: too many requests (429)
//   - DATABASE_ERROR: storage failure (500)
type APIError struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	DatabaseConnected bool      `json:"database_connected"`
	Timestamp         time.Time `json:"timestamp"`
	Uptime            float64   `json:"uptime_seconds"`
}

// SchedulerState is the state of a sync scheduler.
type SchedulerState string

const (
	SchedulerIdle    SchedulerState = "idle"
	SchedulerRunning SchedulerState = "running"
	SchedulerBackoff SchedulerState = "backoff"
)

// SchedulerStatus is a snapshot of one sync scheduler.
type SchedulerStatus struct {
	Name                string         `json:"name"`
	State               SchedulerState `json:"state"`
	Interval            string         `json:"interval"`
	LastRun             *time.Time     `json:"last_run,omitempty"`
	LastSuccess         *time.Time     `json:"last_success,omitempty"`
	NextRun             *time.Time     `json:"next_run,omitempty"`
	LastError           string         `json:"last_error,omitempty"`
	LastCount           int            `json:"last_count"`
	Runs                int64          `json:"runs"`
	Failures            int64          `json:"failures"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
}

// SyncAccepted is returned when a forced sync has been queued.
type SyncAccepted struct {
	Scheduler string `json:"scheduler"`
	Status    string `json:"status"`
}
