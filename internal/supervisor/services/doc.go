// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package services provides suture.Service wrappers for Fleetwatch components.

Each wrapper translates a component's own lifecycle (Start/Stop,
ListenAndServe, a one-shot run) into suture's context-aware Serve and names
the service for supervisor logs through fmt.Stringer.

# Available Services

  - HTTPServerService: *http.Server with graceful shutdown
  - SyncService: sync.Manager and its three schedulers
  - WebSocketHubService: the live feed hub
  - ImportService: one-shot legacy database import

The events bridge implements suture.Service itself and needs no wrapper.

# Return Values

Serve returns ctx.Err() on a normal shutdown and a wrapped error on failure,
which the supervisor answers with a restart. ImportService returns
suture.ErrDoNotRestart once the import has completed.

# Example

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewSyncService(syncManager))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
