// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package legacyimport

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/metrics"
)

func importConfig(path string, batch int) *config.ImportConfig {
	return &config.ImportConfig{Enabled: true, DBPath: path, BatchSize: batch}
}

func TestImporter_Import(t *testing.T) {
	path := createLegacyDB(t, defaultFixture())
	store := newFakeStore()
	progress := NewInMemoryProgress()

	importedBefore := testutil.ToFloat64(metrics.ImportRecords.WithLabelValues(tableAlarms, outcomeImported))

	stats, err := NewImporter(importConfig(path, 2), store, progress).Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if stats.Devices != (TableStats{Read: 2, Imported: 2}) {
		t.Errorf("Devices = %+v", stats.Devices)
	}
	// T200 has no fix and T999 is not a registered device.
	if stats.Positions != (TableStats{Read: 3, Imported: 1, Skipped: 2}) {
		t.Errorf("Positions = %+v", stats.Positions)
	}
	// T999 is unknown and one row has an unreadable time.
	if stats.Alarms != (TableStats{Read: 5, Imported: 3, Skipped: 2}) {
		t.Errorf("Alarms = %+v", stats.Alarms)
	}
	if stats.TotalAlarms != 5 || stats.LastAlarmID != 5 {
		t.Errorf("TotalAlarms/LastAlarmID = %d/%d, want 5/5", stats.TotalAlarms, stats.LastAlarmID)
	}
	if stats.EndTime.IsZero() {
		t.Error("EndTime not set")
	}

	if store.alarmCount() != 3 {
		t.Errorf("stored alarms = %d, want 3", store.alarmCount())
	}
	if store.devices["T100"].CarLicense != "PLATE-1" {
		t.Errorf("T100 = %+v", store.devices["T100"])
	}
	if pos := store.positions["T100"]; pos == nil || pos.Speed != 42 {
		t.Errorf("T100 position = %+v", pos)
	}

	saved, err := progress.Load(context.Background())
	if err != nil || saved == nil || saved.LastAlarmID != 5 {
		t.Errorf("saved progress = %+v, %v; want LastAlarmID 5", saved, err)
	}

	if got := testutil.ToFloat64(metrics.ImportRecords.WithLabelValues(tableAlarms, outcomeImported)) - importedBefore; got != 3 {
		t.Errorf("imported alarms metric delta = %v, want 3", got)
	}
}

func TestImporter_ResumesFromProgress(t *testing.T) {
	path := createLegacyDB(t, defaultFixture())
	store := newFakeStore()
	progress := NewInMemoryProgress()
	if err := progress.Save(context.Background(), &ImportStats{LastAlarmID: 2}); err != nil {
		t.Fatal(err)
	}

	stats, err := NewImporter(importConfig(path, 100), store, progress).Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Alarms != (TableStats{Read: 3, Imported: 1, Skipped: 2}) {
		t.Errorf("Alarms = %+v, want only ids 3..5", stats.Alarms)
	}
	if len(store.alarms) != 1 || store.alarms[0].Terid != "T200" {
		t.Errorf("stored alarms = %+v", store.alarms)
	}
}

func TestImporter_RerunSkipsDuplicates(t *testing.T) {
	path := createLegacyDB(t, defaultFixture())
	store := newFakeStore()
	imp := NewImporter(importConfig(path, 100), store, nil)

	if _, err := imp.Import(context.Background()); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	stats, err := imp.Import(context.Background())
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if stats.Alarms.Imported != 0 || stats.Alarms.Skipped != 5 {
		t.Errorf("second run Alarms = %+v, want all skipped", stats.Alarms)
	}
	if store.alarmCount() != 3 {
		t.Errorf("stored alarms = %d, want 3", store.alarmCount())
	}
}

func TestImporter_DryRun(t *testing.T) {
	path := createLegacyDB(t, defaultFixture())
	store := newFakeStore()
	progress := NewInMemoryProgress()
	cfg := importConfig(path, 2)
	cfg.DryRun = true

	stats, err := NewImporter(cfg, store, progress).Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !stats.DryRun {
		t.Error("DryRun not reported")
	}
	if len(store.devices) != 0 || len(store.positions) != 0 || store.alarmCount() != 0 {
		t.Error("dry run wrote to the store")
	}
	// Without a store the device check cannot run, so only mapper rejections count.
	if stats.Alarms.Imported != 4 || stats.Alarms.Skipped != 1 {
		t.Errorf("Alarms = %+v", stats.Alarms)
	}
	if saved, _ := progress.Load(context.Background()); saved != nil {
		t.Errorf("dry run saved progress %+v", saved)
	}
}

func TestImporter_StoreFailures(t *testing.T) {
	path := createLegacyDB(t, defaultFixture())
	store := newFakeStore()
	store.alarmErr = &database.IOError{Op: "insert alarm", Err: errors.New("disk full")}

	stats, err := NewImporter(importConfig(path, 2), store, nil).Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v, want row failures only", err)
	}
	if stats.Alarms.Failed != 4 || stats.Alarms.Skipped != 1 || stats.Alarms.Imported != 0 {
		t.Errorf("Alarms = %+v", stats.Alarms)
	}
}

func TestImporter_Errors(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		imp := NewImporter(importConfig(filepath.Join(t.TempDir(), "gone.db"), 10), newFakeStore(), nil)
		stats, err := imp.Import(context.Background())
		if err == nil {
			t.Fatal("Import() error = nil")
		}
		if stats == nil {
			t.Fatal("stats = nil on error")
		}
		if imp.IsRunning() {
			t.Error("IsRunning() = true after failed import")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		imp := NewImporter(importConfig(createLegacyDB(t, defaultFixture()), 10), newFakeStore(), nil)
		if _, err := imp.Import(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Import() error = %v, want context.Canceled", err)
		}
	})

	t.Run("stop without import", func(t *testing.T) {
		if err := NewImporter(importConfig("x", 10), newFakeStore(), nil).Stop(); err == nil {
			t.Error("Stop() error = nil with nothing running")
		}
	})

	t.Run("stats before import", func(t *testing.T) {
		if got := NewImporter(importConfig("x", 10), newFakeStore(), nil).GetStats(); got == nil || got.Alarms.Read != 0 {
			t.Errorf("GetStats() = %+v", got)
		}
	})
}

func TestImporter_DuckDBStore(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	path := createLegacyDB(t, defaultFixture())
	stats, err := NewImporter(importConfig(path, 2), db, nil).Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Alarms.Imported != 3 {
		t.Errorf("Alarms = %+v", stats.Alarms)
	}

	counts, err := db.GetRecordCounts(context.Background())
	if err != nil {
		t.Fatalf("GetRecordCounts() error = %v", err)
	}
	if counts.Devices != 2 || counts.Positions != 1 || counts.Alarms != 3 {
		t.Errorf("counts = %+v, want 2 devices, 1 position, 3 alarms", counts)
	}
}
