// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

/*
Package supervisor runs Fleetwatch's long-lived components under a suture v4
supervisor tree.

The tree has three layers below the root:

  - data-layer: the one-shot legacy import
  - messaging-layer: WebSocket hub, sync manager and the events bridge
  - api-layer: the HTTP server

A service that returns an error or panics is restarted by its layer. When
failures exceed FailureThreshold the layer backs off for FailureBackoff.
Supervisor events are logged through sutureslog with the zerolog slog
adapter from internal/logging:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewSyncService(syncManager))
	tree.AddMessagingService(bridge)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	err = tree.Serve(ctx)

The service wrappers live in the services subpackage.
*/
package supervisor
