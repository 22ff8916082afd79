// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/database"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/models"
	"github.com/tomtom215/fleetwatch/internal/sync"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// testDBSemaphore serializes DuckDB tests; concurrent CGO connections from
// many parallel tests can stall under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{DefaultLimit: 1000, MaxLimit: 10000},
		Security: config.SecurityConfig{
			CORSOrigins:     []string{"https://map.example.com"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// setupTestDB opens an in-memory database that is closed with the test.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// fixture is a seeded fleet: two groups, three devices, positions for two of
// them and alarms spread over the last two days.
type fixture struct {
	now    time.Time
	alarms map[string]*models.Alarm
}

func seedFleet(t *testing.T, db *database.DB) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for _, g := range []models.DeviceGroup{
		{GroupID: 1, GroupName: "Dar es Salaam"},
		{GroupID: 2, GroupName: "Arusha", ParentID: 1},
	} {
		g := g
		if err := db.UpsertDeviceGroup(ctx, &g); err != nil {
			t.Fatalf("UpsertDeviceGroup() error = %v", err)
		}
	}

	for _, d := range []models.Device{
		{Terid: "T1", CarLicense: "T 101 AAA", GroupID: 1, CompanyName: "Coastline Bus"},
		{Terid: "T2", CarLicense: "T 202 BBB", GroupID: 1, CompanyName: "Coastline Bus"},
		{Terid: "T3", CarLicense: "T 303 CCC", GroupID: 2, CompanyName: "Highland Haulage"},
	} {
		d := d
		if err := db.UpsertDevice(ctx, &d); err != nil {
			t.Fatalf("UpsertDevice(%s) error = %v", d.Terid, err)
		}
	}

	for _, p := range []models.Position{
		{Terid: "T1", Latitude: -6.8, Longitude: 39.28, Speed: 42, GPSTime: now.Add(-time.Minute)},
		{Terid: "T2", Latitude: -6.81, Longitude: 39.27, Speed: 0, GPSTime: now.Add(-2 * time.Minute)},
	} {
		p := p
		if err := db.UpsertPosition(ctx, &p); err != nil {
			t.Fatalf("UpsertPosition(%s) error = %v", p.Terid, err)
		}
	}

	alarms := map[string]*models.Alarm{
		"recent-overspeed": {Terid: "T1", GPSTime: now.Add(-time.Hour), AlarmType: 24, Latitude: -6.8, Longitude: 39.28, Speed: 95},
		"recent-braking":   {Terid: "T2", GPSTime: now.Add(-2 * time.Hour), AlarmType: 28, Latitude: -6.81, Longitude: 39.27},
		"recent-no-fix":    {Terid: "T2", GPSTime: now.Add(-3 * time.Hour), AlarmType: 24},
		"old-overspeed":    {Terid: "T3", GPSTime: now.Add(-30 * time.Hour), AlarmType: 24, Latitude: -3.37, Longitude: 36.68},
	}
	for name, a := range alarms {
		a.ServerTime = a.GPSTime.Add(time.Second)
		if _, err := db.InsertAlarmIfNew(ctx, a); err != nil {
			t.Fatalf("InsertAlarmIfNew(%s) error = %v", name, err)
		}
	}

	return fixture{now: now, alarms: alarms}
}

// fakeSync records triggers and returns a configured error.
type fakeSync struct {
	mu        gosync.Mutex
	err       error
	triggered []string
}

func (f *fakeSync) Status() []models.SchedulerStatus {
	return []models.SchedulerStatus{
		{Name: "devices", State: models.SchedulerIdle, Interval: "1h0m0s"},
		{Name: "positions", State: models.SchedulerRunning, Interval: "30s"},
		{Name: "alarms", State: models.SchedulerBackoff, Interval: "1m0s", ConsecutiveFailures: 2},
	}
}

func (f *fakeSync) Trigger(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	switch name {
	case "devices", "positions", "alarms":
		f.triggered = append(f.triggered, name)
		return nil
	default:
		return sync.ErrUnknownScheduler
	}
}

// failingStore fails every call.
type failingStore struct{}

var errStoreDown = errors.New("duckdb: connection reset")

func (failingStore) ListDevices(context.Context, models.DeviceFilter) ([]models.Device, error) {
	return nil, errStoreDown
}
func (failingStore) ListDeviceGroups(context.Context) ([]models.DeviceGroup, error) {
	return nil, errStoreDown
}
func (failingStore) GetDevice(context.Context, string) (*models.Device, error) {
	return nil, errStoreDown
}
func (failingStore) QueryPositions(context.Context, models.PositionFilter) ([]models.PositionView, error) {
	return nil, errStoreDown
}
func (failingStore) GetPosition(context.Context, string) (*models.PositionView, error) {
	return nil, errStoreDown
}
func (failingStore) QueryAlarms(context.Context, models.AlarmFilter) ([]models.AlarmView, error) {
	return nil, errStoreDown
}
func (failingStore) GetAlarm(context.Context, int64) (*models.AlarmDetail, error) {
	return nil, errStoreDown
}
func (failingStore) AlarmTypeCounts(context.Context) ([]models.AlarmTypeCount, error) {
	return nil, errStoreDown
}
func (failingStore) GetStats(context.Context, time.Time) (*models.Stats, error) {
	return nil, errStoreDown
}
func (failingStore) Ping(context.Context) error { return errStoreDown }

// serve runs one request through the full router.
func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.10:50000"
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[models.APIError](t, rec)
	if body.Error != code {
		t.Errorf("error code = %q, want %q", body.Error, code)
	}
	if body.Message == "" {
		t.Error("error message is empty")
	}
}
