// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/events"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
	ws "github.com/tomtom215/fleetwatch/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

func newTestTree(t *testing.T) *supervisor.SupervisorTree {
	t.Helper()
	tree, err := supervisor.NewSupervisorTree(slog.New(slog.NewTextHandler(io.Discard, nil)), supervisor.TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func TestInitEvents(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{Events: config.EventsConfig{Enabled: false}}
		ec, err := InitEvents(cfg, ws.NewHub(), newTestTree(t))
		if err != nil {
			t.Fatalf("InitEvents() error = %v", err)
		}
		if _, ok := ec.Publisher().(events.NoopPublisher); !ok {
			t.Errorf("Publisher() = %T, want events.NoopPublisher", ec.Publisher())
		}
		ec.Close()
	})

	t.Run("gochannel", func(t *testing.T) {
		cfg := &config.Config{Events: config.EventsConfig{Enabled: true, Backend: events.BackendGoChannel}}
		ec, err := InitEvents(cfg, ws.NewHub(), newTestTree(t))
		if err != nil {
			t.Fatalf("InitEvents() error = %v", err)
		}
		defer ec.Close()

		if ec.bus == nil || ec.bus.Backend() != events.BackendGoChannel {
			t.Fatalf("bus = %+v, want gochannel", ec.bus)
		}
		if err := ec.Publisher().PublishPositions(context.Background(), []models.Position{{Terid: "T1"}}); err != nil {
			t.Errorf("PublishPositions() error = %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{Events: config.EventsConfig{Enabled: true, Backend: "kafka"}}
		if _, err := InitEvents(cfg, ws.NewHub(), newTestTree(t)); err == nil {
			t.Error("InitEvents() error = nil for an unknown backend")
		}
	})
}

func TestInitImport(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	t.Run("disabled", func(t *testing.T) {
		ic, err := InitImport(&config.Config{}, db, newTestTree(t))
		if err != nil || ic != nil {
			t.Errorf("InitImport() = %v, %v; want nil, nil", ic, err)
		}
		ic.Close()
	})

	t.Run("in-memory progress", func(t *testing.T) {
		cfg := &config.Config{Import: config.ImportConfig{Enabled: true, DBPath: "legacy.db", BatchSize: 100}}
		ic, err := InitImport(cfg, db, newTestTree(t))
		if err != nil {
			t.Fatalf("InitImport() error = %v", err)
		}
		if ic.importer == nil || ic.progress == nil || ic.closer != nil {
			t.Errorf("components = %+v", ic)
		}
		ic.Close()
	})

	t.Run("badger progress", func(t *testing.T) {
		cfg := &config.Config{Import: config.ImportConfig{
			Enabled:      true,
			DBPath:       "legacy.db",
			BatchSize:    100,
			ProgressPath: filepath.Join(t.TempDir(), "progress"),
		}}
		ic, err := InitImport(cfg, db, newTestTree(t))
		if err != nil {
			t.Fatalf("InitImport() error = %v", err)
		}
		if ic.closer == nil {
			t.Error("badger progress store has no closer")
		}
		ic.Close()
	})
}
