// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema statements during startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Timestamps are TIMESTAMP (no zone) and always written in UTC.
// Device references are checked on write instead of with FOREIGN KEY
// constraints, which DuckDB cannot combine with ON CONFLICT updates.
var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS device_groups (
		group_id BIGINT PRIMARY KEY,
		group_name TEXT NOT NULL DEFAULT '',
		parent_id BIGINT NOT NULL DEFAULT 0,
		last_updated TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		terid TEXT PRIMARY KEY,
		car_license TEXT NOT NULL DEFAULT 'Unknown',
		sim TEXT NOT NULL DEFAULT '',
		channel INTEGER NOT NULL DEFAULT 0,
		plate_color INTEGER NOT NULL DEFAULT 0,
		group_id BIGINT NOT NULL DEFAULT 0,
		cname TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL DEFAULT '',
		link_type TEXT NOT NULL DEFAULT '',
		device_username TEXT NOT NULL DEFAULT '',
		device_password TEXT NOT NULL DEFAULT '',
		register_ip TEXT NOT NULL DEFAULT '',
		register_port INTEGER NOT NULL DEFAULT 0,
		transmit_ip TEXT NOT NULL DEFAULT '',
		transmit_port INTEGER NOT NULL DEFAULT 0,
		channel_enable BIGINT NOT NULL DEFAULT 0,
		company_branch TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		last_updated TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		terid TEXT PRIMARY KEY,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		altitude INTEGER NOT NULL DEFAULT 0,
		speed DOUBLE NOT NULL DEFAULT 0,
		record_speed DOUBLE NOT NULL DEFAULT 0,
		direction INTEGER NOT NULL DEFAULT 0,
		state INTEGER NOT NULL DEFAULT 0,
		gps_time TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS alarms_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS alarms (
		id BIGINT PRIMARY KEY DEFAULT nextval('alarms_id_seq'),
		terid TEXT NOT NULL,
		gps_time TIMESTAMP NOT NULL,
		altitude INTEGER NOT NULL DEFAULT 0,
		direction INTEGER NOT NULL DEFAULT 0,
		gps_lat DOUBLE NOT NULL DEFAULT 0,
		gps_lng DOUBLE NOT NULL DEFAULT 0,
		speed DOUBLE NOT NULL DEFAULT 0,
		record_speed DOUBLE NOT NULL DEFAULT 0,
		state INTEGER NOT NULL DEFAULT 0,
		server_time TIMESTAMP NOT NULL,
		alarm_type INTEGER NOT NULL,
		alarm_content TEXT NOT NULL DEFAULT '',
		cmd_type INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (terid, gps_time, alarm_type, server_time)
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_alarms_terid ON alarms(terid)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_gps_time ON alarms(gps_time)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_alarm_type ON alarms(alarm_type)`,
}

// createTables creates all tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range tableStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return &IOError{Op: "create schema", Err: fmt.Errorf("%s: %w", firstLine(stmt), err)}
		}
	}
	return nil
}

// createIndexes creates the alarm query indexes
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return &IOError{Op: "create index", Err: fmt.Errorf("%s: %w", stmt, err)}
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
