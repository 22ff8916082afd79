// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// testDBSemaphore serializes DuckDB tests; concurrent CGO connections from
// many parallel tests can stall under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

// testNow is the fixed clock used by setupTestDB.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with a fixed clock. The semaphore
// is held until the test completes.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	db.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// seedDevice inserts a minimal device row.
func seedDevice(t *testing.T, db *DB, terid string) {
	t.Helper()
	if err := db.UpsertDevice(context.Background(), &models.Device{Terid: terid, CarLicense: "PLATE-" + terid}); err != nil {
		t.Fatalf("UpsertDevice(%s) error = %v", terid, err)
	}
}

func TestNew_CreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	for _, table := range []string{"devices", "device_groups", "positions", "alarms", "schema_migrations"} {
		var n int
		err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?`, table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("table %s: count=%d err=%v", table, n, err)
		}
	}

	version, err := db.GetCurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "fleet.duckdb")
	cfg := &config.DatabaseConfig{Path: path, MaxMemory: "256MB", Threads: 1}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.UpsertDevice(context.Background(), &models.Device{Terid: "T1"}); err != nil {
		t.Fatalf("UpsertDevice() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = New(cfg)
	if err != nil {
		t.Fatalf("reopen New() error = %v", err)
	}
	defer db.Close()

	counts, err := db.GetRecordCounts(context.Background())
	if err != nil {
		t.Fatalf("GetRecordCounts() error = %v", err)
	}
	if counts.Devices != 1 {
		t.Errorf("devices after reopen = %d, want 1", counts.Devices)
	}
	if db.GetDatabasePath() != path {
		t.Errorf("GetDatabasePath() = %q", db.GetDatabasePath())
	}
}

func TestWithConflictRetry(t *testing.T) {
	conflict := errors.New("TransactionContext Error: Transaction conflict: cannot update")

	calls := 0
	err := withConflictRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return conflict
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("withConflictRetry() = %v after %d calls, want success after 3", err, calls)
	}

	calls = 0
	other := errors.New("syntax error")
	err = withConflictRetry(context.Background(), func() error {
		calls++
		return other
	})
	if !errors.Is(err, other) || calls != 1 {
		t.Errorf("non-conflict error: err=%v calls=%d, want 1 call", err, calls)
	}

	calls = 0
	err = withConflictRetry(context.Background(), func() error {
		calls++
		return conflict
	})
	if !errors.Is(err, conflict) || calls != maxConflictRetries {
		t.Errorf("persistent conflict: err=%v calls=%d", err, calls)
	}
}

func TestBuildInClause(t *testing.T) {
	placeholders, args := buildInClause([]int{1, 2, 3})
	if placeholders != "?,?,?" || len(args) != 3 {
		t.Errorf("buildInClause() = %q, %v", placeholders, args)
	}
}

func TestObserve_WrapsUntypedErrors(t *testing.T) {
	raw := errors.New("disk full")
	err := observe("insert", "alarms", time.Now(), raw)

	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, raw) {
		t.Errorf("observe() = %v, want *IOError wrapping cause", err)
	}

	ce := &ConstraintError{Table: "alarms", Terid: "X", Err: ErrUnknownDevice}
	if got := observe("insert", "alarms", time.Now(), ce); got != error(ce) {
		t.Errorf("observe() re-wrapped a ConstraintError: %v", got)
	}
	if got := observe("select", "alarms", time.Now(), ErrNotFound); !errors.Is(got, ErrNotFound) {
		t.Errorf("observe(ErrNotFound) = %v", got)
	}
	if observe("select", "alarms", time.Now(), nil) != nil {
		t.Error("observe(nil) should be nil")
	}
}
