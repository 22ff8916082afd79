// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

//nolint:gochecknoinits // quiet logging for every test in the package
func init() {
	logging.Init(logging.Config{Level: "info", Format: "json", Output: io.Discard})
}

// recordingFeed collects what the bridge forwards.
type recordingFeed struct {
	mu        sync.Mutex
	positions [][]models.Position
	alarms    []models.Alarm
}

func (f *recordingFeed) BroadcastPositions(p []models.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, p)
}

func (f *recordingFeed) BroadcastAlarm(a *models.Alarm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alarms = append(f.alarms, *a)
}

func (f *recordingFeed) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.positions), len(f.alarms)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newGoChannelBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := New(config.EventsConfig{Enabled: true, Backend: BackendGoChannel})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

// runBridge starts a bridge and returns a stop function that waits for Serve to return.
func runBridge(t *testing.T, sub message.Subscriber, feed LiveFeed) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewBridge(sub, feed).Serve(ctx) }()
	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("bridge did not stop")
			return nil
		}
	}
	t.Cleanup(func() { cancel() })
	return stop
}

func testAlarm() *models.Alarm {
	return &models.Alarm{
		ID:        11,
		Terid:     "0099",
		GPSTime:   time.Date(2026, 3, 1, 11, 55, 0, 0, time.UTC),
		AlarmType: 168,
		Latitude:  52.52,
		Longitude: 13.40,
	}
}

func TestNew_Backends(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{backend: "", want: BackendGoChannel},
		{backend: BackendGoChannel, want: BackendGoChannel},
		{backend: "kafka", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			bus, err := New(config.EventsConfig{Backend: tt.backend})
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer bus.Close()
			if bus.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", bus.Backend(), tt.want)
			}
		})
	}
}

func TestBus_PublishAlarmCarriesCorrelationID(t *testing.T) {
	bus := newGoChannelBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscriber().Subscribe(ctx, TopicAlarms)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	published := metrics.EventsPublished.WithLabelValues(TopicAlarms)
	before := testutil.ToFloat64(published)

	tickCtx := logging.ContextWithCorrelationID(context.Background(), "abcd1234")
	if err := bus.PublishAlarm(tickCtx, testAlarm()); err != nil {
		t.Fatalf("PublishAlarm() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		if got := msg.Metadata.Get(metadataCorrelationID); got != "abcd1234" {
			t.Errorf("correlation_id = %q, want abcd1234", got)
		}
		if msg.UUID == "" {
			t.Error("message UUID is empty")
		}
		var alarm models.Alarm
		if err := json.Unmarshal(msg.Payload, &alarm); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if alarm.ID != 11 || alarm.Terid != "0099" || !alarm.GPSTime.Equal(testAlarm().GPSTime) {
			t.Errorf("decoded alarm = %+v", alarm)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}

	if got := testutil.ToFloat64(published) - before; got != 1 {
		t.Errorf("events_published_total delta = %v, want 1", got)
	}
}

func TestBus_EmptyPublishesAreSkipped(t *testing.T) {
	bus := newGoChannelBus(t)
	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicPositions))

	if err := bus.PublishPositions(context.Background(), nil); err != nil {
		t.Errorf("PublishPositions(nil) error = %v", err)
	}
	if err := bus.PublishAlarm(context.Background(), nil); err != nil {
		t.Errorf("PublishAlarm(nil) error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicPositions)); got != before {
		t.Errorf("events_published_total changed by %v", got-before)
	}
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	bus, err := New(config.EventsConfig{Backend: BackendGoChannel})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := bus.PublishAlarm(context.Background(), testAlarm()); !errors.Is(err, ErrClosed) {
		t.Errorf("PublishAlarm after Close error = %v, want ErrClosed", err)
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	if err := p.PublishAlarm(context.Background(), testAlarm()); err != nil {
		t.Errorf("PublishAlarm() error = %v", err)
	}
	if err := p.PublishPositions(context.Background(), []models.Position{{Terid: "1"}}); err != nil {
		t.Errorf("PublishPositions() error = %v", err)
	}
}

func TestBridge_ForwardsBothTopics(t *testing.T) {
	bus := newGoChannelBus(t)
	feed := &recordingFeed{}
	stop := runBridge(t, bus.Subscriber(), feed)

	consumed := metrics.EventsConsumed.WithLabelValues(TopicAlarms)
	before := testutil.ToFloat64(consumed)

	// gochannel drops messages published before the bridge subscribes, so
	// keep publishing until the first one arrives.
	waitFor(t, "bridge subscription", func() bool {
		_ = bus.PublishAlarm(context.Background(), testAlarm())
		_, alarms := feed.counts()
		return alarms > 0
	})

	positions := []models.Position{{Terid: "0099", Latitude: 52.5, Longitude: 13.4, Speed: 40}}
	if err := bus.PublishPositions(context.Background(), positions); err != nil {
		t.Fatalf("PublishPositions() error = %v", err)
	}
	waitFor(t, "positions", func() bool {
		p, _ := feed.counts()
		return p == 1
	})

	feed.mu.Lock()
	if got := feed.positions[0]; len(got) != 1 || got[0].Speed != 40 {
		t.Errorf("forwarded positions = %+v", got)
	}
	if feed.alarms[0].AlarmType != 168 {
		t.Errorf("forwarded alarm = %+v", feed.alarms[0])
	}
	feed.mu.Unlock()

	if testutil.ToFloat64(consumed) <= before {
		t.Error("events_consumed_total did not increase")
	}

	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestBridge_DropsUndecodableMessages(t *testing.T) {
	bus := newGoChannelBus(t)
	feed := &recordingFeed{}
	runBridge(t, bus.Subscriber(), feed)

	waitFor(t, "bridge subscription", func() bool {
		_ = bus.publisher.Publish(TopicPositions, message.NewMessage(watermill.NewUUID(), []byte("not json")))
		_ = bus.PublishAlarm(context.Background(), testAlarm())
		_, alarms := feed.counts()
		return alarms > 0
	})

	if p, _ := feed.counts(); p != 0 {
		t.Errorf("forwarded %d undecodable position events", p)
	}
}

func TestBridge_SubscribeFailure(t *testing.T) {
	bus, err := New(config.EventsConfig{Backend: BackendGoChannel})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = bus.Close()

	err = NewBridge(bus.Subscriber(), &recordingFeed{}).Serve(context.Background())
	if err == nil || !strings.Contains(err.Error(), TopicPositions) {
		t.Errorf("Serve() on closed subscriber error = %v", err)
	}
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	adapter.With(watermill.LogFields{"topic": TopicAlarms}).
		Error("publish failed", errors.New("boom"), watermill.LogFields{"attempt": 2})

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if entry["level"] != "error" || entry["error"] != "boom" {
		t.Errorf("entry = %v", entry)
	}
	if entry["topic"] != TopicAlarms || entry["attempt"] != float64(2) {
		t.Errorf("fields missing: %v", entry)
	}
}

func TestListenAddress(t *testing.T) {
	tests := []struct {
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{url: "nats://127.0.0.1:4222", wantHost: "127.0.0.1", wantPort: 4222},
		{url: "nats://0.0.0.0:14222", wantHost: "0.0.0.0", wantPort: 14222},
		{url: "nats://localhost", wantErr: true},
		{url: "://bad", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			host, port, err := listenAddress(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("listenAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (host != tt.wantHost || port != tt.wantPort) {
				t.Errorf("listenAddress() = %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
