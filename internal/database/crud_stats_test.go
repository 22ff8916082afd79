// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/fleetwatch/internal/models"
)

func TestGetStats_Empty(t *testing.T) {
	db := setupTestDB(t)

	stats, err := db.GetStats(context.Background(), testNow)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalAlarms != 0 || stats.MostActiveDevice != nil || stats.LastUpdated != nil {
		t.Errorf("stats = %+v, want empty", stats)
	}
	if len(stats.Hourly) != 24 {
		t.Errorf("hourly buckets = %d, want 24", len(stats.Hourly))
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedDevice(t, db, "T1")
	seedDevice(t, db, "T2")

	alarms := []*models.Alarm{
		newAlarm("T1", testNow.Add(-10*time.Minute), 1),
		newAlarm("T1", testNow.Add(-70*time.Minute), 2),
		newAlarm("T1", testNow.Add(-71*time.Minute), 2),
		newAlarm("T2", testNow.Add(-3*time.Hour), 2),
		newAlarm("T2", testNow.Add(-48*time.Hour), 1),
	}
	for _, a := range alarms {
		if _, err := db.InsertAlarmIfNew(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.UpsertPosition(ctx, &models.Position{Terid: "T1", Latitude: 1, Longitude: 1, Speed: 50, GPSTime: testNow.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertPosition(ctx, &models.Position{Terid: "T2", Latitude: 1, Longitude: 1, GPSTime: testNow.Add(-3 * time.Hour)}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.GetStats(ctx, testNow)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalAlarms != 5 || stats.TotalDevices != 2 || stats.TotalPositions != 2 {
		t.Errorf("totals = %d/%d/%d", stats.TotalAlarms, stats.TotalDevices, stats.TotalPositions)
	}
	if stats.AlarmsLast24h != 4 {
		t.Errorf("AlarmsLast24h = %d, want 4", stats.AlarmsLast24h)
	}
	if stats.MostActiveDevice == nil || stats.MostActiveDevice.Terid != "T1" || stats.MostActiveDevice.Count != 3 {
		t.Errorf("MostActiveDevice = %+v", stats.MostActiveDevice)
	}
	if len(stats.ByType) != 2 || stats.ByType[0].Type != 2 {
		t.Errorf("ByType = %+v", stats.ByType)
	}
	if stats.PositionStatus.Moving != 1 || stats.PositionStatus.Offline != 1 {
		t.Errorf("PositionStatus = %+v", stats.PositionStatus)
	}
	if stats.LastUpdated == nil || !stats.LastUpdated.Equal(testNow) {
		t.Errorf("LastUpdated = %v", stats.LastUpdated)
	}

	// testNow is 12:00, so the last bucket is 12:00 and the 10:00 bucket holds the two 10:49/10:50 alarms.
	last := stats.Hourly[23]
	if !last.Hour.Equal(testNow) || last.Count != 0 {
		t.Errorf("last bucket = %+v", last)
	}
	var sum int64
	for _, b := range stats.Hourly {
		sum += b.Count
		if b.Hour.Equal(testNow.Add(-2*time.Hour)) && b.Count != 2 {
			t.Errorf("10:00 bucket = %d, want 2", b.Count)
		}
	}
	if sum != 4 {
		t.Errorf("hourly sum = %d, want 4", sum)
	}
}
