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
	"strings"
	"time"

	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// InsertAlarmIfNew stores an alarm unless an identical event
// (terid, gps_time, alarm_type, server_time) already exists.
// A duplicate is reported as models.Duplicate, never as an error.
// On insert a.ID and a.CreatedAt are filled in.
func (db *DB) InsertAlarmIfNew(ctx context.Context, a *models.Alarm) (models.InsertResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	a.GPSTime = a.GPSTime.UTC()
	if a.ServerTime.IsZero() {
		a.ServerTime = a.GPSTime
	}
	a.ServerTime = a.ServerTime.UTC()
	createdAt := db.now().UTC()

	var result models.InsertResult
	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		if err := db.requireDevice(ctx, "alarms", a.Terid); err != nil {
			return err
		}
		res, err := db.conn.ExecContext(ctx, `INSERT INTO alarms (
				terid, gps_time, altitude, direction, gps_lat, gps_lng, speed, record_speed,
				state, server_time, alarm_type, alarm_content, cmd_type, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			a.Terid, a.GPSTime, a.Altitude, a.Direction, a.Latitude, a.Longitude, a.Speed, a.RecordSpeed,
			a.State, a.ServerTime, a.AlarmType, a.Content, a.CmdType, createdAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			result = models.Duplicate
			return nil
		}

		if err := db.conn.QueryRowContext(ctx, `SELECT id FROM alarms
			WHERE terid = ? AND gps_time = ? AND alarm_type = ? AND server_time = ?`,
			a.Terid, a.GPSTime, a.AlarmType, a.ServerTime).Scan(&a.ID); err != nil {
			return err
		}
		a.CreatedAt = createdAt
		result = models.Inserted
		return nil
	})
	if err := observe("insert", "alarms", start, err); err != nil {
		return 0, err
	}
	metrics.RecordAlarmInsert(result == models.Inserted)
	return result, nil
}

const alarmViewQuery = `SELECT a.id, a.terid, a.gps_time, a.altitude, a.direction, a.gps_lat, a.gps_lng,
		a.speed, a.record_speed, a.state, a.server_time, a.alarm_type, a.alarm_content, a.cmd_type,
		a.created_at, COALESCE(d.car_license, 'Unknown')
	FROM alarms a
	LEFT JOIN devices d ON d.terid = a.terid`

func scanAlarmView(row rowScanner) (models.AlarmView, error) {
	var v models.AlarmView
	err := row.Scan(&v.ID, &v.Terid, &v.GPSTime, &v.Altitude, &v.Direction, &v.Latitude, &v.Longitude,
		&v.Speed, &v.RecordSpeed, &v.State, &v.ServerTime, &v.AlarmType, &v.Content, &v.CmdType,
		&v.CreatedAt, &v.CarLicense)
	if err != nil {
		return v, err
	}
	v.TypeName = models.AlarmTypeName(v.AlarmType)
	return v, nil
}

// alarmConditions builds the WHERE conditions of an AlarmFilter.
// Zero times and empty slices add no condition.
func alarmConditions(f *models.AlarmFilter) (string, []any) {
	var conditions []string
	var args []any

	if !f.Start.IsZero() {
		conditions = append(conditions, "a.gps_time >= ?")
		args = append(args, f.Start.UTC())
	}
	if !f.End.IsZero() {
		conditions = append(conditions, "a.gps_time <= ?")
		args = append(args, f.End.UTC())
	}
	if len(f.Terids) > 0 {
		placeholders, teridArgs := buildInClause(f.Terids)
		conditions = append(conditions, fmt.Sprintf("a.terid IN (%s)", placeholders))
		args = append(args, teridArgs...)
	}
	if len(f.Types) > 0 {
		placeholders, typeArgs := buildInClause(f.Types)
		conditions = append(conditions, fmt.Sprintf("a.alarm_type IN (%s)", placeholders))
		args = append(args, typeArgs...)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// QueryAlarms returns alarms matching filter, newest first (gps_time DESC, id DESC),
// capped at filter.EffectiveLimit().
func (db *DB) QueryAlarms(ctx context.Context, filter models.AlarmFilter) ([]models.AlarmView, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := alarmConditions(&filter)
	query := alarmViewQuery + where + ` ORDER BY a.gps_time DESC, a.id DESC LIMIT ?`
	args = append(args, filter.EffectiveLimit())

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, observe("select", "alarms", start, err)
	}
	defer closeWithLog(rows, "alarm rows")

	alarms := make([]models.AlarmView, 0)
	for rows.Next() {
		v, err := scanAlarmView(rows)
		if err != nil {
			return nil, observe("select", "alarms", start, err)
		}
		alarms = append(alarms, v)
	}
	return alarms, observe("select", "alarms", start, rows.Err())
}

// GetAlarm returns one alarm with its device, or ErrNotFound.
// Device is nil when the device row no longer exists.
func (db *DB) GetAlarm(ctx context.Context, id int64) (*models.AlarmDetail, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	v, err := scanAlarmView(db.conn.QueryRowContext(ctx, alarmViewQuery+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err := observe("select", "alarms", start, err); err != nil {
		return nil, err
	}

	detail := &models.AlarmDetail{Alarm: v.Alarm, TypeName: v.TypeName}
	device, err := db.GetDevice(ctx, v.Terid)
	switch {
	case err == nil:
		detail.Device = device
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// AlarmTypeCounts returns the number of stored alarms per type, most frequent first.
func (db *DB) AlarmTypeCounts(ctx context.Context) ([]models.AlarmTypeCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT alarm_type, COUNT(*) AS n
		FROM alarms GROUP BY alarm_type ORDER BY n DESC, alarm_type`)
	if err != nil {
		return nil, observe("aggregate", "alarms", start, err)
	}
	defer closeWithLog(rows, "alarm type rows")

	counts := make([]models.AlarmTypeCount, 0)
	for rows.Next() {
		var c models.AlarmTypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, observe("aggregate", "alarms", start, err)
		}
		c.Name = models.AlarmTypeName(c.Type)
		counts = append(counts, c)
	}
	return counts, observe("aggregate", "alarms", start, rows.Err())
}

// PurgeAlarmsOlderThan deletes alarms whose gps_time is before cutoff and
// returns the number removed.
func (db *DB) PurgeAlarmsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var purged int64
	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		res, err := db.conn.ExecContext(ctx, `DELETE FROM alarms WHERE gps_time < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		purged, err = res.RowsAffected()
		return err
	})
	if err := observe("delete", "alarms", start, err); err != nil {
		return 0, err
	}
	metrics.AlarmsPurged.Add(float64(purged))
	return purged, nil
}
