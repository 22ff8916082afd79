// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

// topDeviceCount is the number of devices listed in Stats.TopDevices.
const topDeviceCount = 10

// GetStats computes the dashboard aggregates as of now. Hourly always holds
// 24 buckets, oldest first, ending with the hour containing now.
func (db *DB) GetStats(ctx context.Context, now time.Time) (*models.Stats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now = now.UTC()
	dayAgo := now.Add(-24 * time.Hour)
	stats := &models.Stats{}

	start := time.Now()
	var lastUpdated sql.NullTime
	err := db.conn.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM alarms),
			(SELECT COUNT(*) FROM devices),
			(SELECT COUNT(*) FROM positions),
			(SELECT COUNT(*) FROM alarms WHERE gps_time >= ?),
			(SELECT MAX(created_at) FROM alarms)`, dayAgo).
		Scan(&stats.TotalAlarms, &stats.TotalDevices, &stats.TotalPositions, &stats.AlarmsLast24h, &lastUpdated)
	if err := observe("aggregate", "stats", start, err); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time.UTC()
		stats.LastUpdated = &t
	}

	if stats.ByType, err = db.AlarmTypeCounts(ctx); err != nil {
		return nil, err
	}
	if stats.TopDevices, err = db.topDevices(ctx); err != nil {
		return nil, err
	}
	if len(stats.TopDevices) > 0 {
		most := stats.TopDevices[0]
		stats.MostActiveDevice = &most
	}
	if stats.Hourly, err = db.hourlyBuckets(ctx, now); err != nil {
		return nil, err
	}
	if stats.PositionStatus, err = db.positionStatusCounts(ctx, now); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) topDevices(ctx context.Context) ([]models.DeviceCount, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT a.terid, COALESCE(MAX(d.car_license), 'Unknown'), COUNT(*) AS n
		FROM alarms a
		LEFT JOIN devices d ON d.terid = a.terid
		GROUP BY a.terid
		ORDER BY n DESC, a.terid
		LIMIT ?`, topDeviceCount)
	if err != nil {
		return nil, observe("aggregate", "alarms", start, err)
	}
	defer closeWithLog(rows, "top device rows")

	devices := make([]models.DeviceCount, 0, topDeviceCount)
	for rows.Next() {
		var dc models.DeviceCount
		if err := rows.Scan(&dc.Terid, &dc.CarLicense, &dc.Count); err != nil {
			return nil, observe("aggregate", "alarms", start, err)
		}
		devices = append(devices, dc)
	}
	return devices, observe("aggregate", "alarms", start, rows.Err())
}

func (db *DB) hourlyBuckets(ctx context.Context, now time.Time) ([]models.HourBucket, error) {
	currentHour := now.Truncate(time.Hour)
	first := currentHour.Add(-23 * time.Hour)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT date_trunc('hour', gps_time) AS hour, COUNT(*)
		FROM alarms
		WHERE gps_time >= ? AND gps_time < ?
		GROUP BY hour`, first, currentHour.Add(time.Hour))
	if err != nil {
		return nil, observe("aggregate", "alarms", start, err)
	}
	defer closeWithLog(rows, "hourly rows")

	counts := make(map[int64]int64)
	for rows.Next() {
		var hour time.Time
		var n int64
		if err := rows.Scan(&hour, &n); err != nil {
			return nil, observe("aggregate", "alarms", start, err)
		}
		counts[hour.UTC().Unix()] = n
	}
	if err := observe("aggregate", "alarms", start, rows.Err()); err != nil {
		return nil, err
	}

	buckets := make([]models.HourBucket, 24)
	for i := range buckets {
		h := first.Add(time.Duration(i) * time.Hour)
		buckets[i] = models.HourBucket{Hour: h, Count: counts[h.Unix()]}
	}
	return buckets, nil
}

func (db *DB) positionStatusCounts(ctx context.Context, now time.Time) (models.StatusCounts, error) {
	var counts models.StatusCounts

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT gps_time, speed FROM positions`)
	if err != nil {
		return counts, observe("aggregate", "positions", start, err)
	}
	defer closeWithLog(rows, "position status rows")

	for rows.Next() {
		var gpsTime time.Time
		var speed float64
		if err := rows.Scan(&gpsTime, &speed); err != nil {
			return counts, observe("aggregate", "positions", start, err)
		}
		counts.Add(models.DerivePositionStatus(gpsTime, speed, now, db.offlineAfter))
	}
	return counts, observe("aggregate", "positions", start, rows.Err())
}
