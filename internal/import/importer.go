// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package legacyimport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// defaultQueryTimeout bounds the schema check when a legacy database is opened.
const defaultQueryTimeout = 30 * time.Second

// Table labels used in stats and metrics.
const (
	tableDevices   = "devices"
	tablePositions = "positions"
	tableAlarms    = "alarms"
)

// Metric outcomes.
const (
	outcomeImported = "imported"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
)

// ErrImportRunning is returned by Import while another import is in progress.
var ErrImportRunning = errors.New("import already in progress")

// ErrImportStopped is returned by Import after Stop was called.
var ErrImportStopped = errors.New("import stopped")

// Store is the write side of the database used by the importer.
type Store interface {
	UpsertDevice(ctx context.Context, d *models.Device) error
	UpsertPosition(ctx context.Context, p *models.Position) error
	InsertAlarmIfNew(ctx context.Context, a *models.Alarm) (models.InsertResult, error)
}

var _ Store = (*database.DB)(nil)

// Importer copies a legacy SQLite database into the store.
type Importer struct {
	cfg      *config.ImportConfig
	store    Store
	progress ProgressTracker
	mapper   *Mapper

	mu       sync.RWMutex
	running  bool
	stats    *ImportStats
	stopChan chan struct{}
}

// NewImporter creates an importer. progress may be nil, in which case the
// import always starts from the first alarm.
func NewImporter(cfg *config.ImportConfig, store Store, progress ProgressTracker) *Importer {
	return &Importer{
		cfg:      cfg,
		store:    store,
		progress: progress,
		mapper:   NewMapper(),
		stopChan: make(chan struct{}),
	}
}

// Import runs the whole import: devices, positions, then alarms in batches.
// The returned stats are valid even when err is not nil.
func (i *Importer) Import(ctx context.Context) (*ImportStats, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrImportRunning
	}
	i.running = true
	i.stats = &ImportStats{
		StartTime: time.Now(),
		DryRun:    i.cfg.DryRun,
	}
	stop := i.stopChan
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.stats.EndTime = time.Now()
		i.mu.Unlock()
	}()

	reader, err := NewSQLiteReader(i.cfg.DBPath)
	if err != nil {
		return i.GetStats(), fmt.Errorf("open legacy database: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing legacy database")
		}
	}()

	log := logging.Ctx(ctx).With().Str("component", "legacy-import").Str("path", i.cfg.DBPath).Logger()
	log.Info().Bool("dry_run", i.cfg.DryRun).Int("batch_size", i.cfg.BatchSize).Msg("Starting legacy import")

	if err := i.importDevices(ctx, reader); err != nil {
		return i.GetStats(), err
	}
	if err := i.importPositions(ctx, reader); err != nil {
		return i.GetStats(), err
	}

	total, err := reader.CountAlarms(ctx)
	if err != nil {
		return i.GetStats(), fmt.Errorf("count alarms: %w", err)
	}

	startID := i.resumePoint(ctx)
	remaining, err := reader.CountAlarmsSince(ctx, startID)
	if err != nil {
		return i.GetStats(), fmt.Errorf("count remaining alarms: %w", err)
	}

	i.mu.Lock()
	i.stats.TotalAlarms = total
	i.stats.LastAlarmID = startID
	i.mu.Unlock()

	log.Info().
		Int64("total_alarms", total).
		Int64("remaining", remaining).
		Int64("start_id", startID).
		Msg("Importing alarms")

	if err := i.processAllBatches(ctx, reader, startID, stop); err != nil {
		return i.GetStats(), err
	}

	stats := i.GetStats()
	log.Info().
		Int64("devices", stats.Devices.Imported).
		Int64("positions", stats.Positions.Imported).
		Int64("alarms_imported", stats.Alarms.Imported).
		Int64("alarms_skipped", stats.Alarms.Skipped).
		Int64("alarms_failed", stats.Alarms.Failed).
		Dur("duration", stats.Duration()).
		Msg("Legacy import completed")

	return stats, nil
}

// resumePoint returns the alarm id after which this run starts.
func (i *Importer) resumePoint(ctx context.Context) int64 {
	if i.progress == nil {
		return 0
	}
	prev, err := i.progress.Load(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load import progress, starting from the first alarm")
		return 0
	}
	if prev == nil {
		return 0
	}
	logging.Info().Int64("last_alarm_id", prev.LastAlarmID).Msg("Resuming legacy import")
	return prev.LastAlarmID
}

func (i *Importer) importDevices(ctx context.Context, reader *SQLiteReader) error {
	rows, err := reader.ReadDevices(ctx)
	if err != nil {
		return fmt.Errorf("read devices: %w", err)
	}

	var st TableStats
	for idx := range rows {
		st.Read++
		device, reason := i.mapper.ToDevice(&rows[idx])
		if device == nil {
			i.skip(&st, tableDevices, rows[idx].Terid, reason)
			continue
		}
		if i.cfg.DryRun {
			i.imported(&st, tableDevices)
			continue
		}
		if err := i.store.UpsertDevice(ctx, device); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			i.fail(&st, tableDevices, device.Terid, err)
			continue
		}
		i.imported(&st, tableDevices)
	}

	i.mu.Lock()
	i.stats.Devices = st
	i.mu.Unlock()
	return nil
}

func (i *Importer) importPositions(ctx context.Context, reader *SQLiteReader) error {
	rows, err := reader.ReadPositions(ctx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var st TableStats
	for idx := range rows {
		st.Read++
		pos, reason := i.mapper.ToPosition(&rows[idx])
		if pos == nil {
			i.skip(&st, tablePositions, rows[idx].Terid, reason)
			continue
		}
		if i.cfg.DryRun {
			i.imported(&st, tablePositions)
			continue
		}
		if err := i.store.UpsertPosition(ctx, pos); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, database.ErrUnknownDevice) {
				i.skip(&st, tablePositions, pos.Terid, SkipUnknownDev)
				continue
			}
			i.fail(&st, tablePositions, pos.Terid, err)
			continue
		}
		i.imported(&st, tablePositions)
	}

	i.mu.Lock()
	i.stats.Positions = st
	i.mu.Unlock()
	return nil
}

// processAllBatches imports alarms with id > startID until the table is exhausted.
func (i *Importer) processAllBatches(ctx context.Context, reader *SQLiteReader, startID int64, stop <-chan struct{}) error {
	currentID := startID
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return ErrImportStopped
		default:
		}

		batch, err := reader.ReadAlarmBatch(ctx, currentID, i.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("read alarm batch after id %d: %w", currentID, err)
		}
		if len(batch) == 0 {
			return nil
		}

		st, err := i.processBatch(ctx, batch)
		if err != nil {
			return err
		}
		currentID = i.finishBatch(ctx, st, batch[len(batch)-1].ID)
	}
}

// processBatch stores one alarm batch. Duplicates and alarms of unknown
// devices are skipped; other write errors count as failed rows.
func (i *Importer) processBatch(ctx context.Context, batch []LegacyAlarm) (TableStats, error) {
	var st TableStats
	for idx := range batch {
		st.Read++
		alarm, reason := i.mapper.ToAlarm(&batch[idx])
		if alarm == nil {
			i.skip(&st, tableAlarms, batch[idx].Terid, reason)
			continue
		}
		if i.cfg.DryRun {
			i.imported(&st, tableAlarms)
			continue
		}

		result, err := i.store.InsertAlarmIfNew(ctx, alarm)
		switch {
		case err != nil && ctx.Err() != nil:
			return st, ctx.Err()
		case errors.Is(err, database.ErrUnknownDevice):
			i.skip(&st, tableAlarms, alarm.Terid, SkipUnknownDev)
		case err != nil:
			i.fail(&st, tableAlarms, alarm.Terid, err)
		case result == models.Duplicate:
			i.skip(&st, tableAlarms, alarm.Terid, "duplicate")
		default:
			i.imported(&st, tableAlarms)
		}
	}
	return st, nil
}

// finishBatch folds batch counts into the running stats and saves progress.
// It returns lastID for the next read.
func (i *Importer) finishBatch(ctx context.Context, st TableStats, lastID int64) int64 {
	i.mu.Lock()
	i.stats.Alarms.Read += st.Read
	i.stats.Alarms.Imported += st.Imported
	i.stats.Alarms.Skipped += st.Skipped
	i.stats.Alarms.Failed += st.Failed
	i.stats.LastAlarmID = lastID
	stats := *i.stats
	i.mu.Unlock()

	if i.progress != nil && !i.cfg.DryRun {
		if err := i.progress.Save(ctx, &stats); err != nil {
			logging.Warn().Err(err).Msg("Failed to save import progress")
		}
	}

	logging.Info().
		Float64("progress_percent", stats.Progress()).
		Int64("read", stats.Alarms.Read).
		Int64("total_alarms", stats.TotalAlarms).
		Int64("imported", stats.Alarms.Imported).
		Int64("skipped", stats.Alarms.Skipped).
		Int64("failed", stats.Alarms.Failed).
		Float64("alarms_per_second", stats.AlarmsPerSecond()).
		Msg("Import progress")

	return lastID
}

func (i *Importer) imported(st *TableStats, table string) {
	st.Imported++
	metrics.ImportRecords.WithLabelValues(table, outcomeImported).Inc()
}

func (i *Importer) skip(st *TableStats, table, terid, reason string) {
	st.Skipped++
	metrics.ImportRecords.WithLabelValues(table, outcomeSkipped).Inc()
	logging.Debug().Str("table", table).Str("terid", terid).Str("reason", reason).Msg("Skipped legacy row")
}

func (i *Importer) fail(st *TableStats, table, terid string, err error) {
	st.Failed++
	metrics.ImportRecords.WithLabelValues(table, outcomeFailed).Inc()
	logging.Error().Err(err).Str("table", table).Str("terid", terid).Msg("Failed to import legacy row")
}

// Stop cancels a running import. The import returns ErrImportStopped at the
// next batch boundary.
func (i *Importer) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return fmt.Errorf("no import in progress")
	}

	close(i.stopChan)
	i.stopChan = make(chan struct{})
	return nil
}

// GetStats returns a copy of the current import statistics.
func (i *Importer) GetStats() *ImportStats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.stats == nil {
		return &ImportStats{}
	}
	stats := *i.stats
	return &stats
}

// IsRunning returns whether an import is currently in progress.
func (i *Importer) IsRunning() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}
