// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

// syncDevices refreshes the group hierarchy and then the device registry.
// A failed group listing does not stop the device listing.
func (m *Manager) syncDevices(ctx context.Context) (int, error) {
	var errs []error
	written := 0

	groups, err := m.client.ListGroups(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		errs = append(errs, fmt.Errorf("list groups: %w", err))
	}
	groupErrs := rowErrors{entity: "device groups"}
	for i := range groups {
		if err := m.store.UpsertDeviceGroup(ctx, &groups[i]); err != nil {
			groupErrs.add(err)
			continue
		}
		written++
	}

	devices, err := m.client.ListDevices(ctx)
	if err != nil {
		errs = append(errs, groupErrs.err(), fmt.Errorf("list devices: %w", err))
		return written, errors.Join(errs...)
	}

	deviceErrs := rowErrors{entity: "devices"}
	for i := range devices {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := m.store.UpsertDevice(ctx, &devices[i]); err != nil {
			deviceErrs.add(err)
			continue
		}
		written++
	}

	logging.Ctx(ctx).Debug().
		Int("groups", len(groups)).
		Int("devices", len(devices)).
		Int("failed", groupErrs.failed+deviceErrs.failed).
		Msg("Device registry refreshed")

	errs = append(errs, groupErrs.err(), deviceErrs.err())
	return written, errors.Join(errs...)
}

// rowErrors counts per-row storage failures and keeps the first one.
type rowErrors struct {
	entity string
	failed int
	first  error
}

func (r *rowErrors) add(err error) {
	r.failed++
	if r.first == nil {
		r.first = err
	}
}

func (r *rowErrors) err() error {
	if r.failed == 0 {
		return nil
	}
	return fmt.Errorf("%d %s failed to store: %w", r.failed, r.entity, r.first)
}
