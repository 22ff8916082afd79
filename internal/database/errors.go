// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/fleetwatch/internal/logging"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrUnknownDevice is wrapped by ConstraintError when a position or alarm
	// references a terid that is not in the devices table.
	ErrUnknownDevice = errors.New("unknown device")
)

// ConstraintError reports a write rejected by a data integrity rule.
type ConstraintError struct {
	Table string
	Terid string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violated for terid %q: %v", e.Table, e.Terid, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// IOError wraps a storage failure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in error paths where Close errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
