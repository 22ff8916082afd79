// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// LiveFeed receives decoded events. *websocket.Hub implements it.
type LiveFeed interface {
	BroadcastPositions(positions []models.Position)
	BroadcastAlarm(alarm *models.Alarm)
}

// Bridge forwards fleet.positions and fleet.alarms to a LiveFeed.
type Bridge struct {
	subscriber message.Subscriber
	feed       LiveFeed
}

// NewBridge creates a bridge reading from subscriber.
func NewBridge(subscriber message.Subscriber, feed LiveFeed) *Bridge {
	return &Bridge{subscriber: subscriber, feed: feed}
}

// Serve subscribes to both topics and forwards messages until ctx is done.
// It implements suture.Service. A closed subscription returns an error so
// the supervisor restarts the bridge.
func (b *Bridge) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	positions, err := b.subscriber.Subscribe(ctx, TopicPositions)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicPositions, err)
	}
	alarms, err := b.subscriber.Subscribe(ctx, TopicAlarms)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicAlarms, err)
	}

	logging.Info().Strs("topics", []string{TopicPositions, TopicAlarms}).Msg("Event bridge started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Event bridge stopped")
			return ctx.Err()

		case msg, ok := <-positions:
			if !ok {
				return b.closedErr(ctx, TopicPositions)
			}
			b.handlePositions(msg)

		case msg, ok := <-alarms:
			if !ok {
				return b.closedErr(ctx, TopicAlarms)
			}
			b.handleAlarm(msg)
		}
	}
}

// String names the service in supervisor logs.
func (b *Bridge) String() string {
	return "event-bridge"
}

func (b *Bridge) closedErr(ctx context.Context, topic string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("subscription to %s closed", topic)
}

func (b *Bridge) handlePositions(msg *message.Message) {
	defer msg.Ack()

	var event PositionsEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logMessage(msg).Warn().Err(err).Str("topic", TopicPositions).Msg("Dropping undecodable event")
		return
	}
	b.feed.BroadcastPositions(event.Positions)
	metrics.EventsConsumed.WithLabelValues(TopicPositions).Inc()
	logMessage(msg).Debug().Int("positions", len(event.Positions)).Msg("Forwarded positions to live feed")
}

func (b *Bridge) handleAlarm(msg *message.Message) {
	defer msg.Ack()

	var alarm models.Alarm
	if err := json.Unmarshal(msg.Payload, &alarm); err != nil {
		logMessage(msg).Warn().Err(err).Str("topic", TopicAlarms).Msg("Dropping undecodable event")
		return
	}
	b.feed.BroadcastAlarm(&alarm)
	metrics.EventsConsumed.WithLabelValues(TopicAlarms).Inc()
	logMessage(msg).Debug().Int64("alarm_id", alarm.ID).Msg("Forwarded alarm to live feed")
}

// logMessage returns a logger carrying the publishing tick's correlation ID.
func logMessage(msg *message.Message) *zerolog.Logger {
	ctx := context.Background()
	if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return logging.Ctx(ctx)
}
