// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

const deviceColumns = `terid, car_license, sim, channel, plate_color, group_id, cname,
	device_type, link_type, device_username, device_password, register_ip, register_port,
	transmit_ip, transmit_port, channel_enable, company_branch, company_name, last_updated`

// UpsertDevice inserts or updates a device by terid and stamps last_updated.
// Upserting the same device twice leaves one row.
func (db *DB) UpsertDevice(ctx context.Context, d *models.Device) error {
	d.Normalize()
	if d.Terid == "" {
		return &ConstraintError{Table: "devices", Terid: d.Terid, Err: errors.New("empty terid")}
	}

	unlock := db.lockRow("devices", d.Terid)
	defer unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	d.LastUpdated = db.now().UTC()
	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO devices (`+deviceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (terid) DO UPDATE SET
				car_license = EXCLUDED.car_license,
				sim = EXCLUDED.sim,
				channel = EXCLUDED.channel,
				plate_color = EXCLUDED.plate_color,
				group_id = EXCLUDED.group_id,
				cname = EXCLUDED.cname,
				device_type = EXCLUDED.device_type,
				link_type = EXCLUDED.link_type,
				device_username = EXCLUDED.device_username,
				device_password = EXCLUDED.device_password,
				register_ip = EXCLUDED.register_ip,
				register_port = EXCLUDED.register_port,
				transmit_ip = EXCLUDED.transmit_ip,
				transmit_port = EXCLUDED.transmit_port,
				channel_enable = EXCLUDED.channel_enable,
				company_branch = EXCLUDED.company_branch,
				company_name = EXCLUDED.company_name,
				last_updated = EXCLUDED.last_updated`,
			d.Terid, d.CarLicense, d.SIM, d.Channel, d.PlateColor, d.GroupID, d.CName,
			d.DeviceType, d.LinkType, d.DeviceUsername, d.DevicePassword, d.RegisterIP, d.RegisterPort,
			d.TransmitIP, d.TransmitPort, d.ChannelEnable, d.CompanyBranch, d.CompanyName, d.LastUpdated)
		return err
	})
	return observe("upsert", "devices", start, err)
}

// UpsertDeviceGroup inserts or updates a device group by group_id.
func (db *DB) UpsertDeviceGroup(ctx context.Context, g *models.DeviceGroup) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	g.LastUpdated = db.now().UTC()
	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO device_groups (group_id, group_name, parent_id, last_updated)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (group_id) DO UPDATE SET
				group_name = EXCLUDED.group_name,
				parent_id = EXCLUDED.parent_id,
				last_updated = EXCLUDED.last_updated`,
			g.GroupID, g.GroupName, g.ParentID, g.LastUpdated)
		return err
	})
	return observe("upsert", "device_groups", start, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (models.Device, error) {
	var d models.Device
	err := row.Scan(&d.Terid, &d.CarLicense, &d.SIM, &d.Channel, &d.PlateColor, &d.GroupID, &d.CName,
		&d.DeviceType, &d.LinkType, &d.DeviceUsername, &d.DevicePassword, &d.RegisterIP, &d.RegisterPort,
		&d.TransmitIP, &d.TransmitPort, &d.ChannelEnable, &d.CompanyBranch, &d.CompanyName, &d.LastUpdated)
	return d, err
}

// GetDevice returns one device or ErrNotFound.
func (db *DB) GetDevice(ctx context.Context, terid string) (*models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	d, err := scanDevice(db.conn.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE terid = ?`, terid))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err := observe("select", "devices", start, err); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDevices returns devices ordered by last_updated descending.
func (db *DB) ListDevices(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE 1=1`
	var args []any
	if filter.GroupID != nil {
		query += ` AND group_id = ?`
		args = append(args, *filter.GroupID)
	}
	query += ` ORDER BY last_updated DESC, terid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, observe("select", "devices", start, err)
	}
	defer closeWithLog(rows, "device rows")

	devices := make([]models.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, observe("select", "devices", start, err)
		}
		devices = append(devices, d)
	}
	return devices, observe("select", "devices", start, rows.Err())
}

// ListDeviceGroups returns all groups ordered by group_id.
func (db *DB) ListDeviceGroups(ctx context.Context) ([]models.DeviceGroup, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT group_id, group_name, parent_id, last_updated FROM device_groups ORDER BY group_id`)
	if err != nil {
		return nil, observe("select", "device_groups", start, err)
	}
	defer closeWithLog(rows, "group rows")

	groups := make([]models.DeviceGroup, 0)
	for rows.Next() {
		var g models.DeviceGroup
		if err := rows.Scan(&g.GroupID, &g.GroupName, &g.ParentID, &g.LastUpdated); err != nil {
			return nil, observe("select", "device_groups", start, err)
		}
		groups = append(groups, g)
	}
	return groups, observe("select", "device_groups", start, rows.Err())
}

// ListDeviceIDs returns every known terid in ascending order.
func (db *DB) ListDeviceIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT terid FROM devices ORDER BY terid`)
	if err != nil {
		return nil, observe("select", "devices", start, err)
	}
	defer closeWithLog(rows, "terid rows")

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, observe("select", "devices", start, err)
		}
		ids = append(ids, id)
	}
	return ids, observe("select", "devices", start, rows.Err())
}

// requireDevice returns a *ConstraintError wrapping ErrUnknownDevice when
// terid is not registered.
func (db *DB) requireDevice(ctx context.Context, table, terid string) error {
	var one int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM devices WHERE terid = ?`, terid).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &ConstraintError{Table: table, Terid: terid, Err: ErrUnknownDevice}
	}
	return err
}
