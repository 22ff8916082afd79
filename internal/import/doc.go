// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package legacyimport imports the SQLite database of the previous tracker
// deployment into the DuckDB store.
//
// # Use Cases
//
//   - Migration: keep alarm history when switching a fleet over to Fleetwatch
//   - Backup recovery: restore devices and alarms from an old database file
//
// # Pipeline
//
//	legacy SQLite (devices, gps, alarms)
//	       ↓
//	SQLiteReader (modernc.org/sqlite, read-only)
//	       ↓
//	Mapper (normalization and validation)
//	       ↓
//	Store (internal/database upserts)
//
// Devices are imported first, then the latest positions, then alarms in id
// order. Positions and alarms reference devices, so rows whose device is
// missing are skipped as unknown_device.
//
// # Deduplication and Resume
//
// Alarms go through InsertAlarmIfNew, so importing the same file twice or
// importing alarms the scheduler already fetched creates no duplicates.
// After every alarm batch the last alarm id is saved through a
// ProgressTracker. BadgerProgress keeps it on disk, so a restarted import
// continues where it stopped.
//
// # Example Usage
//
//	progress, err := legacyimport.OpenBadgerProgress(cfg.Import.ProgressPath)
//	if err != nil {
//	    return err
//	}
//	defer progress.Close()
//
//	importer := legacyimport.NewImporter(&cfg.Import, db, progress)
//	stats, err := importer.Import(ctx)
//	if err != nil {
//	    return err
//	}
//	logging.Info().Int64("alarms", stats.Alarms.Imported).Msg("Legacy import done")
package legacyimport
