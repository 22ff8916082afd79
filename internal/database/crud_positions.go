// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// UpsertPosition stores the latest fix of a device, replacing any previous one.
// The device must already exist.
func (db *DB) UpsertPosition(ctx context.Context, p *models.Position) error {
	if err := models.ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
		return &ConstraintError{Table: "positions", Terid: p.Terid, Err: err}
	}

	unlock := db.lockRow("positions", p.Terid)
	defer unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p.GPSTime = p.GPSTime.UTC()
	p.UpdatedAt = db.now().UTC()
	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		if err := db.requireDevice(ctx, "positions", p.Terid); err != nil {
			return err
		}
		_, err := db.conn.ExecContext(ctx, `INSERT INTO positions (
				terid, latitude, longitude, altitude, speed, record_speed,
				direction, state, gps_time, address, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (terid) DO UPDATE SET
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				altitude = EXCLUDED.altitude,
				speed = EXCLUDED.speed,
				record_speed = EXCLUDED.record_speed,
				direction = EXCLUDED.direction,
				state = EXCLUDED.state,
				gps_time = EXCLUDED.gps_time,
				address = EXCLUDED.address,
				updated_at = EXCLUDED.updated_at`,
			p.Terid, p.Latitude, p.Longitude, p.Altitude, p.Speed, p.RecordSpeed,
			p.Direction, p.State, p.GPSTime, p.Address, p.UpdatedAt)
		return err
	})
	return observe("upsert", "positions", start, err)
}

const positionViewQuery = `SELECT p.terid, p.latitude, p.longitude, p.altitude, p.speed, p.record_speed,
		p.direction, p.state, p.gps_time, COALESCE(p.address, ''), p.updated_at,
		COALESCE(d.car_license, 'Unknown'), COALESCE(d.group_id, 0), COALESCE(d.company_name, '')
	FROM positions p
	LEFT JOIN devices d ON d.terid = p.terid`

func (db *DB) scanPositionView(row rowScanner, now time.Time) (models.PositionView, error) {
	var v models.PositionView
	err := row.Scan(&v.Terid, &v.Latitude, &v.Longitude, &v.Altitude, &v.Speed, &v.RecordSpeed,
		&v.Direction, &v.State, &v.GPSTime, &v.Address, &v.UpdatedAt,
		&v.CarLicense, &v.GroupID, &v.CompanyName)
	if err != nil {
		return v, err
	}
	v.Status = models.DerivePositionStatus(v.GPSTime, v.Speed, now, db.offlineAfter)
	return v, nil
}

// GetPosition returns the current position of one device or ErrNotFound.
func (db *DB) GetPosition(ctx context.Context, terid string) (*models.PositionView, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	v, err := db.scanPositionView(db.conn.QueryRowContext(ctx, positionViewQuery+` WHERE p.terid = ?`, terid), db.now())
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err := observe("select", "positions", start, err); err != nil {
		return nil, err
	}
	return &v, nil
}

// QueryPositions returns current positions joined with device metadata,
// newest fix first. An empty Terids slice returns every device.
func (db *DB) QueryPositions(ctx context.Context, filter models.PositionFilter) ([]models.PositionView, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := positionViewQuery + ` WHERE 1=1`
	var args []any
	if len(filter.Terids) > 0 {
		placeholders, teridArgs := buildInClause(filter.Terids)
		query += fmt.Sprintf(` AND p.terid IN (%s)`, placeholders)
		args = append(args, teridArgs...)
	}

	now := db.now()
	if filter.Status != "" {
		cond, statusArgs := statusCondition(filter.Status, now.Add(-db.offlineAfter))
		query += ` AND ` + cond
		args = append(args, statusArgs...)
	}

	query += ` ORDER BY p.gps_time DESC, p.terid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, observe("select", "positions", start, err)
	}
	defer closeWithLog(rows, "position rows")

	positions := make([]models.PositionView, 0)
	for rows.Next() {
		v, err := db.scanPositionView(rows, now)
		if err != nil {
			return nil, observe("select", "positions", start, err)
		}
		positions = append(positions, v)
	}
	return positions, observe("select", "positions", start, rows.Err())
}

// statusCondition mirrors models.DerivePositionStatus in SQL so that a status
// filter is applied before LIMIT. cutoff is now minus the offline threshold.
func statusCondition(status models.PositionStatus, cutoff time.Time) (string, []any) {
	cutoff = cutoff.UTC()
	switch status {
	case models.StatusOffline:
		return `p.gps_time < ?`, []any{cutoff}
	case models.StatusMoving:
		return `p.gps_time >= ? AND p.speed > ?`, []any{cutoff, models.MovingSpeedThreshold}
	default:
		return `p.gps_time >= ? AND p.speed <= ?`, []any{cutoff, models.MovingSpeedThreshold}
	}
}
