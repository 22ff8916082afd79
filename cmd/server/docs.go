// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// @title Fleetwatch API
// @version 1.0
// @description Read-only map API over vehicle telemetry synced from the Brigade fleet platform.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Forced syncs are limited to 10 per minute.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "error": "VALIDATION_ERROR",
// @description   "message": "start must not be after end",
// @description   "details": {"field": "start"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/fleetwatch/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api
// @schemes http https
//
// @tag.name Core
// @tag.description Health checks and statistics
//
// @tag.name Devices
// @tag.description Device registry and groups
//
// @tag.name Positions
// @tag.description Latest GPS fixes with derived status
//
// @tag.name Alarms
// @tag.description Alarm history, heatmap and type catalogue
//
// @tag.name Sync
// @tag.description Scheduler status and forced runs
//
// @tag.name Realtime
// @tag.description WebSocket live feed
package main
