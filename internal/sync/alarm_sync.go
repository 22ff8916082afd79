// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fleetwatch/internal/brigade"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// syncAlarms queries the window [now-lookback, now] for every stored device
// and inserts events that are not stored yet. Consecutive windows overlap, so
// most events are seen more than once and dropped as duplicates.
func (m *Manager) syncAlarms(ctx context.Context) (int, error) {
	now := m.now()
	defer m.purgeIfDue(ctx, now)

	terids, err := m.store.ListDeviceIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list device ids: %w", err)
	}
	if len(terids) == 0 {
		logging.Ctx(ctx).Debug().Msg("No devices stored yet, skipping alarm sync")
		return 0, nil
	}

	query := brigade.AlarmQuery{Start: now.Add(-m.cfg.Lookback), End: now}
	var errs []error
	rowErrs := rowErrors{entity: "alarms"}
	inserted, duplicates, unknown := 0, 0, 0

	for _, batch := range batches(terids, m.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		query.Terids = batch
		alarms, err := m.client.QueryAlarms(ctx, query)
		if err != nil {
			errs = append(errs, fmt.Errorf("alarms batch of %d devices: %w", len(batch), err))
			if errors.Is(err, gobreaker.ErrOpenState) {
				break
			}
			continue
		}

		for i := range alarms {
			a := &alarms[i]
			result, err := m.store.InsertAlarmIfNew(ctx, a)
			switch {
			case errors.Is(err, database.ErrUnknownDevice):
				unknown++
			case err != nil:
				rowErrs.add(err)
			case result == models.Duplicate:
				duplicates++
			default:
				inserted++
				if err := m.publisher.PublishAlarm(ctx, a); err != nil {
					logging.Ctx(ctx).Warn().Err(err).Int64("alarm_id", a.ID).Msg("Failed to publish alarm")
				}
			}
		}
	}

	logging.Ctx(ctx).Debug().
		Time("window_start", query.Start).
		Time("window_end", query.End).
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Int("unknown_device", unknown).
		Msg("Alarm window processed")

	errs = append(errs, rowErrs.err())
	return inserted, errors.Join(errs...)
}

// purgeIfDue deletes alarms past retention when purge_interval has elapsed
// since the last successful purge. Purge failures are logged only.
func (m *Manager) purgeIfDue(ctx context.Context, now time.Time) {
	m.purgeMu.Lock()
	defer m.purgeMu.Unlock()

	if !m.lastPurge.IsZero() && now.Sub(m.lastPurge) < m.cfg.PurgeInterval {
		return
	}
	if ctx.Err() != nil {
		return
	}

	cutoff := now.AddDate(0, 0, -m.cfg.RetentionDays)
	purged, err := m.store.PurgeAlarmsOlderThan(ctx, cutoff)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Time("cutoff", cutoff).Msg("Alarm retention purge failed")
		return
	}
	m.lastPurge = now
	logging.Ctx(ctx).Info().
		Int64("purged", purged).
		Time("cutoff", cutoff).
		Int("retention_days", m.cfg.RetentionDays).
		Msg("Alarm retention purge completed")
}
