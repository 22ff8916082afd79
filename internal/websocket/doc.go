// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package websocket implements the live feed served at /api/ws.

A single Hub fans messages out to every connected Client. Each client runs a
read pump (answers "ping" with "pong", detects disconnects) and a write pump
(forwards hub messages, sends protocol pings every 54s).

Message types:

  - positions: batch of positions stored by one position sync tick
  - alarm: one newly inserted alarm, with its type name
  - sync_completed: a scheduler tick finished (scheduler, records, duration_ms, success)
  - ping / pong: application-level keepalive

Every frame is JSON:

	{"type": "alarm", "data": {"id": 42, "terid": "0099", "alarm_type": 168, ...}}

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	conn, _ := upgrader.Upgrade(w, r, nil)
	client := websocket.NewClient(hub, conn)
	hub.Register <- client
	client.Start()

Broadcasts never block the caller. When the hub queue is full a message is
dropped, and a client whose own buffer is full is disconnected.
*/
package websocket
