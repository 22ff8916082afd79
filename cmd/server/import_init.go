// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package main

import (
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	legacyimport "github.com/tomtom215/fleetwatch/internal/import"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/supervisor"
	"github.com/tomtom215/fleetwatch/internal/supervisor/services"
)

// ImportComponents holds what the legacy import needs closed at shutdown.
type ImportComponents struct {
	importer *legacyimport.Importer
	progress legacyimport.ProgressTracker
	closer   func() error
}

// InitImport adds the one-shot legacy import to the data layer. Progress is
// kept in BadgerDB when import.progress_path is set, in memory otherwise.
// Returns nil when the import is disabled.
func InitImport(cfg *config.Config, db *database.DB, tree *supervisor.SupervisorTree) (*ImportComponents, error) {
	if !cfg.Import.Enabled {
		logging.Debug().Msg("Legacy import disabled (IMPORT_ENABLED=false)")
		return nil, nil
	}

	components := &ImportComponents{}
	if cfg.Import.ProgressPath != "" {
		progress, err := legacyimport.OpenBadgerProgress(cfg.Import.ProgressPath)
		if err != nil {
			return nil, err
		}
		components.progress = progress
		components.closer = progress.Close
		logging.Info().Str("path", cfg.Import.ProgressPath).Msg("Legacy import progress stored in BadgerDB")
	} else {
		components.progress = legacyimport.NewInMemoryProgress()
		logging.Warn().Msg("IMPORT_PROGRESS_PATH not set, an interrupted import restarts from the first alarm")
	}

	components.importer = legacyimport.NewImporter(&cfg.Import, db, components.progress)
	tree.AddDataService(services.NewImportService(components.importer))

	logging.Info().
		Str("db_path", cfg.Import.DBPath).
		Int("batch_size", cfg.Import.BatchSize).
		Bool("dry_run", cfg.Import.DryRun).
		Msg("Legacy import scheduled")
	return components, nil
}

// Close releases the progress store.
func (c *ImportComponents) Close() {
	if c == nil || c.closer == nil {
		return
	}
	if err := c.closer(); err != nil {
		logging.Error().Err(err).Msg("Error closing import progress store")
	}
}
