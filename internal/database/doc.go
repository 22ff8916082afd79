// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package database is the DuckDB storage layer for devices, device groups,
// latest positions and alarm events.
//
// # Architecture
//
// Core Database Operations:
//   - database.go: connection lifecycle, pool configuration and initialization
//   - database_schema.go: table, sequence and index creation
//   - migrations.go: versioned schema_migrations
//   - database_utils.go: context timeouts, per-row locks, conflict retries, checkpoints
//   - errors.go: ConstraintError, IOError and sentinels
//
// Data Access:
//   - crud_devices.go: device and group upserts and lookups
//   - crud_positions.go: latest-position upserts and joined views
//   - crud_alarms.go: deduplicating alarm inserts, filtered queries, retention purge
//   - crud_stats.go: dashboard aggregates
//
// # Data Model
//
// devices and device_groups mirror the vendor registry and are keyed by
// terid and group_id. positions holds one row per terid that is overwritten by
// every newer fix. alarms is append-only; ids come from alarms_id_seq and
// (terid, gps_time, alarm_type, server_time) is unique, so replaying an
// overlapping lookback window inserts nothing twice.
//
// All timestamps are stored as UTC TIMESTAMP values.
//
// # Thread Safety
//
// DB is safe for concurrent use. Writers of the same device row are
// serialized by a per-terid mutex and DuckDB transaction conflicts are retried
// up to three times.
//
// # Error Handling
//
//   - ErrNotFound for single-row lookups that match nothing
//   - *ConstraintError wrapping ErrUnknownDevice when a position or alarm
//     references an unregistered terid
//   - *IOError for any other storage failure
//
// # Usage Example
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	result, err := db.InsertAlarmIfNew(ctx, &alarm)
//	if err == nil && result == models.Inserted {
//	    publisher.PublishAlarm(ctx, alarm)
//	}
package database
