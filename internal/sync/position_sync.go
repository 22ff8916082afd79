// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// Reasons recorded in positions_skipped_total.
const (
	skipNoFix         = "no_fix"
	skipOutOfRange    = "out_of_range"
	skipUnknownDevice = "unknown_device"
)

// syncPositions fetches the last fix of every stored device in batches.
// A failed batch is reported but does not stop the remaining batches.
func (m *Manager) syncPositions(ctx context.Context) (int, error) {
	terids, err := m.store.ListDeviceIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list device ids: %w", err)
	}
	if len(terids) == 0 {
		logging.Ctx(ctx).Debug().Msg("No devices stored yet, skipping position sync")
		return 0, nil
	}

	var errs []error
	rowErrs := rowErrors{entity: "positions"}
	written, skipped := 0, 0

	for _, batch := range batches(terids, m.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		positions, err := m.client.LastPositions(ctx, batch)
		if err != nil {
			errs = append(errs, fmt.Errorf("positions batch of %d devices: %w", len(batch), err))
			if errors.Is(err, gobreaker.ErrOpenState) {
				break
			}
			continue
		}

		stored := make([]models.Position, 0, len(positions))
		for i := range positions {
			p := &positions[i]
			if reason := positionSkipReason(p); reason != "" {
				metrics.PositionsSkipped.WithLabelValues(reason).Inc()
				skipped++
				continue
			}
			if err := m.store.UpsertPosition(ctx, p); err != nil {
				if errors.Is(err, database.ErrUnknownDevice) {
					metrics.PositionsSkipped.WithLabelValues(skipUnknownDevice).Inc()
					skipped++
					continue
				}
				rowErrs.add(err)
				continue
			}
			stored = append(stored, *p)
		}

		written += len(stored)
		if len(stored) > 0 {
			if err := m.publisher.PublishPositions(ctx, stored); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Int("positions", len(stored)).Msg("Failed to publish positions")
			}
		}
	}

	logging.Ctx(ctx).Debug().
		Int("devices", len(terids)).
		Int("stored", written).
		Int("skipped", skipped).
		Msg("Positions refreshed")

	errs = append(errs, rowErrs.err())
	return written, errors.Join(errs...)
}

// positionSkipReason returns why a fix must not be stored, or "".
func positionSkipReason(p *models.Position) string {
	if !p.HasFix() {
		return skipNoFix
	}
	if models.ValidateCoordinates(p.Latitude, p.Longitude) != nil {
		return skipOutOfRange
	}
	return ""
}
