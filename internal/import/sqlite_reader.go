// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package legacyimport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Pure Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

// requiredTables are the legacy tables the importer reads.
var requiredTables = []string{"devices", "gps", "alarms"}

// SQLiteReader reads rows from a legacy tracker database.
// The file is opened read-only and is never modified.
type SQLiteReader struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteReader opens dbPath read-only and checks that the legacy tables exist.
func NewSQLiteReader(dbPath string) (*SQLiteReader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("legacy database: %w", err)
	}

	dsn := "file:" + dbPath + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := verifyTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify tables: %w", err)
	}

	return &SQLiteReader{db: db, dbPath: dbPath}, nil
}

func verifyTables(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	for _, table := range requiredTables {
		var count int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("table %s not found", table)
		}
	}
	return nil
}

// Close closes the database handle.
func (r *SQLiteReader) Close() error {
	return r.db.Close()
}

// ReadDevices returns every device row.
func (r *SQLiteReader) ReadDevices(ctx context.Context) ([]LegacyDevice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT terid, car_license, sim, channel, plate_color, group_id, cname,
			device_type, link_type, device_username, device_password,
			register_ip, register_port, transmit_ip, transmit_port,
			channel_enable, company_branch, company_name
		FROM devices
		ORDER BY terid`)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer closeRows(rows)

	var devices []LegacyDevice
	for rows.Next() {
		var (
			d                                       LegacyDevice
			terid, license, sim, cname              sql.NullString
			deviceType, linkType, user, password    sql.NullString
			registerIP, transmitIP, branch, company sql.NullString
			channel, plateColor, groupID            sql.NullInt64
			registerPort, transmitPort, enable      sql.NullInt64
		)
		if err := rows.Scan(&terid, &license, &sim, &channel, &plateColor, &groupID, &cname,
			&deviceType, &linkType, &user, &password,
			&registerIP, &registerPort, &transmitIP, &transmitPort,
			&enable, &branch, &company); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}

		d.Terid = terid.String
		d.CarLicense = license.String
		d.SIM = sim.String
		d.Channel = int(channel.Int64)
		d.PlateColor = int(plateColor.Int64)
		d.GroupID = groupID.Int64
		d.CName = cname.String
		d.DeviceType = deviceType.String
		d.LinkType = linkType.String
		d.DeviceUsername = user.String
		d.DevicePassword = password.String
		d.RegisterIP = registerIP.String
		d.RegisterPort = int(registerPort.Int64)
		d.TransmitIP = transmitIP.String
		d.TransmitPort = int(transmitPort.Int64)
		d.ChannelEnable = enable.Int64
		d.CompanyBranch = branch.String
		d.CompanyName = company.String
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// ReadPositions returns every row of the gps table.
func (r *SQLiteReader) ReadPositions(ctx context.Context) ([]LegacyPosition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT terid, gps_time, latitude, longitude, altitude, speed,
			recordspeed, direction, state, address
		FROM gps
		ORDER BY terid`)
	if err != nil {
		return nil, fmt.Errorf("query gps: %w", err)
	}
	defer closeRows(rows)

	var positions []LegacyPosition
	for rows.Next() {
		var (
			p                          LegacyPosition
			terid, gpsTime, address    sql.NullString
			lat, lng, speed, recSpeed  sql.NullFloat64
			altitude, direction, state sql.NullInt64
		)
		if err := rows.Scan(&terid, &gpsTime, &lat, &lng, &altitude, &speed,
			&recSpeed, &direction, &state, &address); err != nil {
			return nil, fmt.Errorf("scan gps: %w", err)
		}

		p.Terid = terid.String
		p.GPSTime = gpsTime.String
		p.Latitude = lat.Float64
		p.Longitude = lng.Float64
		p.Altitude = int(altitude.Int64)
		p.Speed = speed.Float64
		p.RecordSpeed = recSpeed.Float64
		p.Direction = int(direction.Int64)
		p.State = int(state.Int64)
		p.Address = address.String
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// CountAlarms returns the number of alarm rows.
func (r *SQLiteReader) CountAlarms(ctx context.Context) (int64, error) {
	return r.CountAlarmsSince(ctx, 0)
}

// CountAlarmsSince returns the number of alarm rows with id > sinceID.
func (r *SQLiteReader) CountAlarmsSince(ctx context.Context, sinceID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alarms WHERE id > ?", sinceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count alarms since %d: %w", sinceID, err)
	}
	return count, nil
}

// ReadAlarmBatch returns up to limit alarms with id > sinceID in id order.
func (r *SQLiteReader) ReadAlarmBatch(ctx context.Context, sinceID int64, limit int) ([]LegacyAlarm, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, terid, gps_time, altitude, direction, gps_lat, gps_lng,
			speed, record_speed, state, server_time, alarm_type, alarm_content, cmd_type
		FROM alarms
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?`, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer closeRows(rows)

	var alarms []LegacyAlarm
	for rows.Next() {
		var (
			a                                     LegacyAlarm
			terid, gpsTime, serverTime, content   sql.NullString
			lat, lng, speed, recSpeed             sql.NullFloat64
			altitude, direction, state, alarmType sql.NullInt64
			cmdType                               sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &terid, &gpsTime, &altitude, &direction, &lat, &lng,
			&speed, &recSpeed, &state, &serverTime, &alarmType, &content, &cmdType); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}

		a.Terid = terid.String
		a.GPSTime = gpsTime.String
		a.Altitude = int(altitude.Int64)
		a.Direction = int(direction.Int64)
		a.Latitude = lat.Float64
		a.Longitude = lng.Float64
		a.Speed = speed.Float64
		a.RecordSpeed = recSpeed.Float64
		a.State = int(state.Int64)
		a.ServerTime = serverTime.String
		a.AlarmType = int(alarmType.Int64)
		a.Content = content.String
		a.CmdType = int(cmdType.Int64)
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn().Err(err).Msg("Failed to close legacy rows")
	}
}
