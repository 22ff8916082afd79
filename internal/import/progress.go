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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	// progressKey is the BadgerDB key for storing import progress.
	progressKey = "import:legacy:progress"
)

// ProgressTracker persists import progress between runs.
type ProgressTracker interface {
	// Save persists the current import progress.
	Save(ctx context.Context, stats *ImportStats) error

	// Load retrieves the last saved progress, or nil if there is none.
	Load(ctx context.Context) (*ImportStats, error)

	// Clear removes saved progress (for fresh imports).
	Clear(ctx context.Context) error
}

// BadgerProgress implements ProgressTracker using BadgerDB for persistence.
type BadgerProgress struct {
	db    *badger.DB
	owned bool
}

// NewBadgerProgress creates a tracker on an already open BadgerDB.
// Close does not close db.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// OpenBadgerProgress opens (or creates) a BadgerDB directory for progress.
// The returned tracker owns the database; call Close when done.
func OpenBadgerProgress(dir string) (*BadgerProgress, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open progress store %s: %w", dir, err)
	}
	return &BadgerProgress{db: db, owned: true}, nil
}

// Save persists the current import progress to BadgerDB.
func (p *BadgerProgress) Save(_ context.Context, stats *ImportStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey), data)
	})
}

// Load retrieves the last saved import progress from BadgerDB.
// Returns nil, nil if no progress has been saved.
func (p *BadgerProgress) Load(_ context.Context) (*ImportStats, error) {
	var stats ImportStats
	found := false

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	if !found {
		return nil, nil
	}
	return &stats, nil
}

// Clear removes saved progress from BadgerDB.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the database if the tracker opened it.
func (p *BadgerProgress) Close() error {
	if !p.owned {
		return nil
	}
	return p.db.Close()
}

// InMemoryProgress implements ProgressTracker using in-memory storage.
// Progress is lost on restart.
type InMemoryProgress struct {
	mu    sync.Mutex
	stats *ImportStats
}

// NewInMemoryProgress creates a new in-memory progress tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of stats.
func (p *InMemoryProgress) Save(_ context.Context, stats *ImportStats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	statsCopy := *stats
	p.stats = &statsCopy
	return nil
}

// Load returns a copy of the stored progress.
func (p *InMemoryProgress) Load(_ context.Context) (*ImportStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil, nil
	}
	statsCopy := *p.stats
	return &statsCopy, nil
}

// Clear removes the stored progress.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = nil
	return nil
}
