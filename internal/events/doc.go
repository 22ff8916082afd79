// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package events fans sync results out to live consumers through Watermill.

The sync schedulers publish two topics:

  - fleet.positions: every batch of positions stored by a position tick
  - fleet.alarms: every alarm that InsertAlarmIfNew reported as inserted

Backends:

  - gochannel (default): in-process pub/sub, no external dependency
  - nats: core NATS through watermill-nats, optionally against an embedded
    nats-server so a single binary still works without infrastructure

Bridge subscribes to both topics and forwards them to the WebSocket hub. It
runs as a suture service; when events are disabled the scheduler manager
gets NoopPublisher and no bridge is started.

Payloads are JSON (goccy/go-json). Each message carries a UUID and the
correlation_id of the sync tick that produced it, so bridge log lines can
be joined with scheduler log lines.

Delivery is at-most-once. A message that cannot be decoded is logged and
acknowledged.
*/
package events
