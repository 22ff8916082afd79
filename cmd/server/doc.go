// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package main is the entry point for the Fleetwatch server.

Fleetwatch keeps a local DuckDB copy of a fleet's devices, latest GPS
positions and alarm history, synced from the Brigade vendor API, and serves
it to a map frontend through a read-only REST API and a WebSocket live feed.

# Application Architecture

	RootSupervisor ("fleetwatch")
	├── DataSupervisor ("data-layer")
	│   └── Legacy import (optional, one-shot)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── Sync manager (devices, positions, alarms schedulers)
	│   └── Events bridge (when events are enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Initialization order:

 1. Configuration: koanf defaults, optional YAML file, environment
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB with schema migration
 4. Brigade client behind a circuit breaker
 5. Event bus (gochannel or NATS) or a no-op publisher
 6. WebSocket hub and sync manager
 7. HTTP router and server
 8. Legacy import, when enabled
 9. Supervisor tree, run until SIGINT or SIGTERM

# Configuration

Required:

	BRIGADE_API_URL=https://brigade.example.com
	BRIGADE_USERNAME=fleet-ops
	BRIGADE_PASSWORD=secret

Common options:

	DUCKDB_PATH=/data/fleetwatch.duckdb
	HTTP_PORT=8080
	SYNC_POSITION_INTERVAL=30s
	SYNC_ALARM_INTERVAL=1m
	EVENTS_BACKEND=nats
	IMPORT_ENABLED=true IMPORT_DB_PATH=/data/legacy.db

A YAML file given by CONFIG_PATH is read before the environment.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within its shutdown timeout: the HTTP server drains requests, the
schedulers finish their current tick, and the hub closes client connections.
The event bus and the database are closed after the tree returns.
*/
package main
