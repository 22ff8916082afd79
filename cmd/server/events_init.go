// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/events"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

// EventComponents holds the event bus and the publisher handed to the sync manager.
type EventComponents struct {
	bus       *events.Bus
	publisher events.Publisher
}

// InitEvents builds the event bus and adds its bridge to the messaging layer.
// With events disabled the publisher discards everything and the live feed
// only carries sync_completed messages.
func InitEvents(cfg *config.Config, hub *ws.Hub, tree *supervisor.SupervisorTree) (*EventComponents, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Events disabled (EVENTS_ENABLED=false), live feed limited to sync notifications")
		return &EventComponents{publisher: events.NoopPublisher{}}, nil
	}

	bus, err := events.New(cfg.Events)
	if err != nil {
		return nil, err
	}

	tree.AddMessagingService(events.NewBridge(bus.Subscriber(), hub))
	logging.Info().
		Str("backend", bus.Backend()).
		Bool("embedded_server", cfg.Events.EmbeddedServer).
		Msg("Event bus initialized")

	return &EventComponents{bus: bus, publisher: bus}, nil
}

// Publisher returns the publisher for the sync schedulers.
func (e *EventComponents) Publisher() events.Publisher {
	return e.publisher
}

// Close closes the bus, if one was created.
func (e *EventComponents) Close() {
	if e.bus == nil {
		return
	}
	if err := e.bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}
}
