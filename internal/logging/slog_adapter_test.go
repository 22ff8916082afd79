// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewSlogHandler(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	if handler == nil {
		t.Fatal("NewSlogHandler() = nil, want non-nil")
	}
	if handler.attrs != nil || handler.groups != nil {
		t.Error("new handler should carry no attrs or groups")
	}
}

func TestSlogHandler_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)))
			logger.Log(context.Background(), tt.level, "msg")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %s missing %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestSlogHandler_AttrKinds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))
	logger.Info("supervisor event",
		slog.String("service", "alarm-sync"),
		slog.Int("restarts", 2),
		slog.Uint64("u", 7),
		slog.Float64("f", 1.5),
		slog.Bool("ok", true),
		slog.Duration("backoff", time.Second),
		slog.Time("at", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		slog.Any("any", []int{1}),
	)

	output := buf.String()
	for _, want := range []string{
		`"service":"alarm-sync"`, `"restarts":2`, `"u":7`, `"f":1.5`, `"ok":true`, `"any":[1]`, `"at":`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output %s missing %s", output, want)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf))).
		With("layer", "data").
		WithGroup("sync")
	logger.Info("grouped", "name", "device", slog.Group("stats", slog.Int("n", 3)))

	output := buf.String()
	for _, want := range []string{`"sync.layer":"data"`, `"sync.name":"device"`, `"sync.stats.n":3`} {
		if !strings.Contains(output, want) {
			t.Errorf("output %s missing %s", output, want)
		}
	}
}

func TestSlogHandler_EmptyGroup(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(nil))
	if h.WithGroup("") != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestNewSlogLogger(t *testing.T) {
	t.Parallel()

	if NewSlogLogger() == nil {
		t.Fatal("NewSlogLogger() = nil")
	}
}
