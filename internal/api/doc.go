// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package api provides the read-only HTTP API of Fleetwatch.

The API serves what the sync schedulers have stored: devices, current
positions and alarms. The only write is a forced sync, which queues an
immediate scheduler tick.

Key Components:

  - Router: chi route table and middleware stack (SetupChi)
  - Handler: one method per endpoint, split across handlers_*.go by resource
  - Request structs: query parameters validated with go-playground/validator
  - ChiMiddleware: go-chi/cors and per-IP go-chi/httprate limiters

Endpoints:

	GET  /api/devices               devices, newest update first (group_id, limit)
	GET  /api/device-groups         groups
	GET  /api/gps/positions         current positions with status (terid, status, limit)
	GET  /api/gps/position/{terid}  one position
	GET  /api/alarms                alarms (start, end, hours, terid, type, limit)
	GET  /api/alarms/heatmap        weighted alarm points, same filters
	GET  /api/alarm/{id}            one alarm with its device
	GET  /api/alarm-types           counts per alarm type
	GET  /api/stats                 fleet aggregates
	GET  /api/sync/status           scheduler snapshots
	POST /api/sync/{scheduler}      force a sync (devices, positions, alarms)
	GET  /api/ws                    WebSocket live feed
	GET  /api/health/live           liveness
	GET  /api/health/ready          readiness (database ping)
	GET  /metrics                   Prometheus
	GET  /swagger/*                 Swagger UI

Responses:

Successful responses are the bare JSON payload. Failures share one shape:

	{"error": "VALIDATION_ERROR", "message": "start must be before end"}

Validation errors are 400, unknown resources 404, a scheduler that is
already running 409, rate limited clients 429 and storage failures 500.

Example:

	handler := api.NewHandler(db, syncManager, hub, cfg)
	router := api.NewRouter(handler)
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
