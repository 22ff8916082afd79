// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/brigade"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// Scheduler names, as used in status output, metrics and POST /api/sync/{scheduler}.
const (
	SchedulerDevices   = "devices"
	SchedulerPositions = "positions"
	SchedulerAlarms    = "alarms"
)

var (
	// ErrSyncInProgress is returned when a forced sync hits a scheduler that is already running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnknownScheduler is returned for a scheduler name that does not exist.
	ErrUnknownScheduler = errors.New("unknown scheduler")

	// ErrNotRunning is returned by Trigger before Start or after Stop.
	ErrNotRunning = errors.New("sync manager is not running")
)

// Store is the storage surface the schedulers write to. *database.DB satisfies it.
type Store interface {
	UpsertDevice(ctx context.Context, d *models.Device) error
	UpsertDeviceGroup(ctx context.Context, g *models.DeviceGroup) error
	UpsertPosition(ctx context.Context, p *models.Position) error
	InsertAlarmIfNew(ctx context.Context, a *models.Alarm) (models.InsertResult, error)
	ListDeviceIDs(ctx context.Context) ([]string, error)
	PurgeAlarmsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ Store = (*database.DB)(nil)

// EventPublisher fans out freshly stored data. Publish failures are logged
// and never fail a tick.
type EventPublisher interface {
	PublishAlarm(ctx context.Context, alarm *models.Alarm) error
	PublishPositions(ctx context.Context, positions []models.Position) error
}

// WebSocketHub receives sync_completed notifications.
type WebSocketHub interface {
	BroadcastJSON(messageType string, data interface{})
}

// SyncCompleted is broadcast to WebSocket clients after every tick.
type SyncCompleted struct {
	Scheduler  string `json:"scheduler"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Manager owns the three schedulers and their shared dependencies.
type Manager struct {
	store     Store
	client    brigade.API
	cfg       config.SyncConfig
	publisher EventPublisher
	wsHub     WebSocketHub
	now       func() time.Time

	schedulers map[string]*scheduler
	order      []string

	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	wg       sync.WaitGroup

	onSyncCompleted func(scheduler string, records int, durationMs int64)

	purgeMu   sync.Mutex
	lastPurge time.Time
}

// NewManager wires the schedulers. publisher and wsHub may be nil.
func NewManager(store Store, client brigade.API, cfg config.SyncConfig, publisher EventPublisher, wsHub WebSocketHub) *Manager {
	cfg = withDefaults(cfg)
	if publisher == nil {
		publisher = noopPublisher{}
	}

	m := &Manager{
		store:     store,
		client:    client,
		cfg:       cfg,
		publisher: publisher,
		wsHub:     wsHub,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}

	m.schedulers = map[string]*scheduler{
		SchedulerDevices:   newScheduler(SchedulerDevices, cfg.DeviceInterval, 0, m.syncDevices),
		SchedulerPositions: newScheduler(SchedulerPositions, cfg.PositionInterval, cfg.StartupDelay, m.syncPositions),
		SchedulerAlarms:    newScheduler(SchedulerAlarms, cfg.AlarmInterval, cfg.StartupDelay, m.syncAlarms),
	}
	m.order = []string{SchedulerDevices, SchedulerPositions, SchedulerAlarms}
	for _, s := range m.schedulers {
		s.onComplete = m.tickCompleted
	}

	logging.Info().
		Dur("device_interval", cfg.DeviceInterval).
		Dur("position_interval", cfg.PositionInterval).
		Dur("alarm_interval", cfg.AlarmInterval).
		Dur("lookback", cfg.Lookback).
		Int("batch_size", cfg.BatchSize).
		Int("retention_days", cfg.RetentionDays).
		Msg("Sync manager config loaded")

	return m
}

func withDefaults(cfg config.SyncConfig) config.SyncConfig {
	if cfg.DeviceInterval <= 0 {
		cfg.DeviceInterval = 10 * time.Minute
	}
	if cfg.PositionInterval <= 0 {
		cfg.PositionInterval = 30 * time.Second
	}
	if cfg.AlarmInterval <= 0 {
		cfg.AlarmInterval = 5 * time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = 24 * time.Hour
	}
	if cfg.StartupDelay < 0 {
		cfg.StartupDelay = 0
	}
	return cfg
}

// SetOnSyncCompleted sets a callback invoked after every successful tick.
func (m *Manager) SetOnSyncCompleted(callback func(scheduler string, records int, durationMs int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// Start launches the scheduler goroutines. The device scheduler ticks
// immediately; positions and alarms wait for the startup delay.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("sync manager is already running")
	}

	logging.Info().Msg("Starting sync manager...")
	m.running = true
	m.stopChan = make(chan struct{})

	for _, name := range m.order {
		s := m.schedulers[name]
		m.wg.Add(1)
		go func(stop <-chan struct{}) {
			defer m.wg.Done()
			s.loop(ctx, stop)
		}(m.stopChan)
	}
	return nil
}

// Stop signals every scheduler and waits for in-flight ticks to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Status returns a snapshot of every scheduler in a stable order.
func (m *Manager) Status() []models.SchedulerStatus {
	statuses := make([]models.SchedulerStatus, 0, len(m.order))
	for _, name := range m.order {
		statuses = append(statuses, m.schedulers[name].Status())
	}
	return statuses
}

// Trigger asks the named scheduler to tick now. It does not wait for the tick.
func (m *Manager) Trigger(name string) error {
	s, ok := m.schedulers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScheduler, name)
	}
	if !m.IsRunning() {
		return ErrNotRunning
	}
	if err := s.requestRun(); err != nil {
		return err
	}
	logging.Info().Str("scheduler", name).Msg("Sync triggered")
	return nil
}

// RunOnce runs one tick of the named scheduler synchronously.
func (m *Manager) RunOnce(ctx context.Context, name string) error {
	s, ok := m.schedulers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScheduler, name)
	}
	return s.runOnce(ctx)
}

func (m *Manager) tickCompleted(r tickResult) {
	durationMs := r.Duration.Milliseconds()

	if m.wsHub != nil {
		msg := SyncCompleted{
			Scheduler:  r.Scheduler,
			Records:    r.Records,
			DurationMs: durationMs,
			Success:    r.Err == nil,
		}
		if r.Err != nil {
			msg.Error = r.Err.Error()
		}
		m.wsHub.BroadcastJSON("sync_completed", msg)
	}

	if r.Err != nil {
		return
	}
	m.mu.RLock()
	callback := m.onSyncCompleted
	m.mu.RUnlock()
	if callback != nil {
		callback(r.Scheduler, r.Records, durationMs)
	}
}

// batches splits ids into chunks of at most size.
func batches(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(ids)
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

type noopPublisher struct{}

func (noopPublisher) PublishAlarm(context.Context, *models.Alarm) error          { return nil }
func (noopPublisher) PublishPositions(context.Context, []models.Position) error { return nil }
