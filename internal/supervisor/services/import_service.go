// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	legacyimport "github.com/tomtom215/fleetwatch/internal/import"
	"github.com/tomtom215/fleetwatch/internal/logging"
)

// Importer is satisfied by *legacyimport.Importer.
type Importer interface {
	Import(ctx context.Context) (*legacyimport.ImportStats, error)
	IsRunning() bool
	Stop() error
}

// ImportService runs a legacy database import once at startup.
//
// A completed import returns suture.ErrDoNotRestart so the supervisor
// leaves it stopped. A failed import is returned as an error; the restart
// resumes from the saved alarm id.
type ImportService struct {
	importer Importer
	name     string
}

// NewImportService wraps importer.
func NewImportService(importer Importer) *ImportService {
	return &ImportService{
		importer: importer,
		name:     "legacy-import",
	}
}

// Serve implements suture.Service.
func (s *ImportService) Serve(ctx context.Context) error {
	logging.Info().Msg("Starting legacy database import")

	stats, err := s.importer.Import(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logging.Info().Msg("Legacy import interrupted by shutdown")
			return ctx.Err()
		}
		return fmt.Errorf("legacy import failed: %w", err)
	}

	logging.Info().
		Int64("devices", stats.Devices.Imported).
		Int64("positions", stats.Positions.Imported).
		Int64("alarms", stats.Alarms.Imported).
		Bool("dry_run", stats.DryRun).
		Msg("Legacy import finished")
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer for supervisor logs.
func (s *ImportService) String() string {
	return s.name
}
