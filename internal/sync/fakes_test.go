// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package sync

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/fleetwatch/internal/brigade"
	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/models"
)

var errVendorDown = &brigade.TransientNetworkError{Op: "test", StatusCode: 503, Err: errors.New("service unavailable")}

// fakeAPI serves canned vendor data and records what was asked for.
type fakeAPI struct {
	mu sync.Mutex

	devices   []models.Device
	groups    []models.DeviceGroup
	positions map[string]models.Position
	extra     []models.Position // returned with every positions batch
	alarms    []models.Alarm

	extraAlarms []models.Alarm // returned with every alarms batch

	devicesErr error
	groupsErr  error
	alarmsErr  error

	// failPositionCall fails the n-th LastPositions call (1-based).
	failPositionCall int

	positionCalls [][]string
	alarmQueries  []brigade.AlarmQuery
}

func (f *fakeAPI) ListDevices(context.Context) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return slices.Clone(f.devices), nil
}

func (f *fakeAPI) ListGroups(context.Context) ([]models.DeviceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return slices.Clone(f.groups), nil
}

func (f *fakeAPI) LastPositions(_ context.Context, terids []string) ([]models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionCalls = append(f.positionCalls, slices.Clone(terids))
	if f.failPositionCall == len(f.positionCalls) {
		return nil, errVendorDown
	}
	var out []models.Position
	for _, id := range terids {
		if p, ok := f.positions[id]; ok {
			out = append(out, p)
		}
	}
	return append(out, f.extra...), nil
}

func (f *fakeAPI) QueryAlarms(_ context.Context, q brigade.AlarmQuery) ([]models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alarmQueries = append(f.alarmQueries, brigade.AlarmQuery{
		Terids: slices.Clone(q.Terids), Types: q.Types, Start: q.Start, End: q.End,
	})
	if f.alarmsErr != nil {
		return nil, f.alarmsErr
	}
	var out []models.Alarm
	for _, a := range f.alarms {
		if !slices.Contains(q.Terids, a.Terid) {
			continue
		}
		if a.GPSTime.Before(q.Start) || a.GPSTime.After(q.End) {
			continue
		}
		out = append(out, a)
	}
	return append(out, f.extraAlarms...), nil
}

type alarmKey struct {
	terid      string
	gpsTime    time.Time
	alarmType  int
	serverTime time.Time
}

// fakeStore keeps rows in maps and mirrors the database layer's error contract.
type fakeStore struct {
	mu sync.Mutex

	devices   map[string]models.Device
	groups    map[int64]models.DeviceGroup
	positions map[string]models.Position
	alarms    map[alarmKey]models.Alarm
	nextID    int64

	purgeCutoffs []time.Time
	purgeErr     error
	idsErr       error
}

func newFakeStore(terids ...string) *fakeStore {
	s := &fakeStore{
		devices:   make(map[string]models.Device),
		groups:    make(map[int64]models.DeviceGroup),
		positions: make(map[string]models.Position),
		alarms:    make(map[alarmKey]models.Alarm),
	}
	for _, id := range terids {
		s.devices[id] = models.Device{Terid: id, CarLicense: "PLATE-" + id}
	}
	return s
}

func (s *fakeStore) UpsertDevice(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Normalize()
	if d.Terid == "" {
		return &database.ConstraintError{Table: "devices", Err: errors.New("empty terid")}
	}
	s.devices[d.Terid] = *d
	return nil
}

func (s *fakeStore) UpsertDeviceGroup(_ context.Context, g *models.DeviceGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.GroupID] = *g
	return nil
}

func (s *fakeStore) UpsertPosition(_ context.Context, p *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[p.Terid]; !ok {
		return &database.ConstraintError{Table: "positions", Terid: p.Terid, Err: database.ErrUnknownDevice}
	}
	s.positions[p.Terid] = *p
	return nil
}

func (s *fakeStore) InsertAlarmIfNew(_ context.Context, a *models.Alarm) (models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[a.Terid]; !ok {
		return 0, &database.ConstraintError{Table: "alarms", Terid: a.Terid, Err: database.ErrUnknownDevice}
	}
	if a.ServerTime.IsZero() {
		a.ServerTime = a.GPSTime
	}
	key := alarmKey{a.Terid, a.GPSTime.UTC(), a.AlarmType, a.ServerTime.UTC()}
	if _, ok := s.alarms[key]; ok {
		return models.Duplicate, nil
	}
	s.nextID++
	a.ID = s.nextID
	s.alarms[key] = *a
	return models.Inserted, nil
}

func (s *fakeStore) ListDeviceIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idsErr != nil {
		return nil, s.idsErr
	}
	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeStore) PurgeAlarmsOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeCutoffs = append(s.purgeCutoffs, cutoff)
	if s.purgeErr != nil {
		return 0, s.purgeErr
	}
	var purged int64
	for k, a := range s.alarms {
		if a.GPSTime.Before(cutoff) {
			delete(s.alarms, k)
			purged++
		}
	}
	return purged, nil
}

func (s *fakeStore) alarmCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alarms)
}

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	alarms    []models.Alarm
	positions [][]models.Position
	err       error
}

func (p *fakePublisher) PublishAlarm(_ context.Context, a *models.Alarm) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alarms = append(p.alarms, *a)
	return p.err
}

func (p *fakePublisher) PublishPositions(_ context.Context, positions []models.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions = append(p.positions, slices.Clone(positions))
	return p.err
}

// fakeHub records broadcasts.
type fakeHub struct {
	mu       sync.Mutex
	messages []SyncCompleted
}

func (h *fakeHub) BroadcastJSON(messageType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg, ok := data.(SyncCompleted); ok && messageType == "sync_completed" {
		h.messages = append(h.messages, msg)
	}
}

func (h *fakeHub) snapshot() []SyncCompleted {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.messages)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		DeviceInterval:   time.Hour,
		PositionInterval: time.Hour,
		AlarmInterval:    time.Hour,
		Lookback:         10 * time.Minute,
		BatchSize:        50,
		RetentionDays:    30,
		PurgeInterval:    24 * time.Hour,
		StartupDelay:     time.Hour,
	}
}

// newTestManager builds a manager with a fixed clock.
func newTestManager(store Store, api brigade.API, cfg config.SyncConfig, pub EventPublisher, hub WebSocketHub) *Manager {
	m := NewManager(store, api, cfg, pub, hub)
	m.now = func() time.Time { return testNow }
	return m
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
