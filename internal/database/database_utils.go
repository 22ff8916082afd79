// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/metrics"
)

// maxConflictRetries bounds retries of DuckDB transaction conflicts.
const maxConflictRetries = 3

// ensureContext adds a 30-second timeout when ctx has no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return &IOError{Op: "checkpoint", Err: err}
	}
	return nil
}

// GetDatabasePath returns the path to the database file
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// RecordCounts holds the row count of each data table.
type RecordCounts struct {
	Devices   int64
	Groups    int64
	Positions int64
	Alarms    int64
}

// GetRecordCounts returns the row counts of the data tables.
func (db *DB) GetRecordCounts(ctx context.Context) (RecordCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c RecordCounts
	err := db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM devices),
		(SELECT COUNT(*) FROM device_groups),
		(SELECT COUNT(*) FROM positions),
		(SELECT COUNT(*) FROM alarms)`).Scan(&c.Devices, &c.Groups, &c.Positions, &c.Alarms)
	if err != nil {
		return RecordCounts{}, &IOError{Op: "count records", Err: err}
	}
	return c, nil
}

// lockRow serializes writers of one row. The returned func releases the lock.
func (db *DB) lockRow(table, key string) func() {
	muInterface, _ := db.rowLocks.LoadOrStore(table+"/"+key, &sync.Mutex{})
	mu, ok := muInterface.(*sync.Mutex)
	if !ok {
		mu = &sync.Mutex{}
		db.rowLocks.Store(table+"/"+key, mu)
	}
	mu.Lock()
	return mu.Unlock
}

// withConflictRetry runs fn, retrying DuckDB transaction conflicts with a
// short exponential backoff (1ms, 2ms).
func withConflictRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isTransactionConflict(err) || attempt == maxConflictRetries-1 {
			return err
		}

		backoff := time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// buildInClause creates a parameterized IN clause.
//
//	placeholders, args := buildInClause([]string{"T1", "T2"})
//	// placeholders = "?,?"
func buildInClause[T any](items []T) (string, []any) {
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ","), args
}

// observe records query duration and wraps failures as *IOError. Errors that
// are already typed pass through unchanged.
func observe(operation, table string, start time.Time, err error) error {
	if errors.Is(err, ErrNotFound) {
		metrics.RecordDBQuery(operation, table, time.Since(start), nil)
		return err
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err == nil {
		return nil
	}
	var ioErr *IOError
	var constraintErr *ConstraintError
	if errors.As(err, &ioErr) || errors.As(err, &constraintErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &IOError{Op: operation + " " + table, Err: err}
}
