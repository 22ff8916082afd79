// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/fleetwatch/internal/config"
	"github.com/tomtom215/fleetwatch/internal/logging"
	"github.com/tomtom215/fleetwatch/internal/metrics"
	"github.com/tomtom215/fleetwatch/internal/models"
)

// Topics published by the sync schedulers.
const (
	TopicPositions = "fleet.positions"
	TopicAlarms    = "fleet.alarms"
)

// Backends accepted by New.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

const metadataCorrelationID = "correlation_id"

// ErrClosed is returned when publishing on a closed Bus.
var ErrClosed = errors.New("event bus is closed")

// Publisher is what the sync schedulers publish through.
type Publisher interface {
	PublishAlarm(ctx context.Context, alarm *models.Alarm) error
	PublishPositions(ctx context.Context, positions []models.Position) error
}

// PositionsEvent is the payload of TopicPositions.
type PositionsEvent struct {
	Positions []models.Position `json:"positions"`
}

// Bus owns a Watermill publisher/subscriber pair and, for the embedded NATS
// setup, the server behind them.
type Bus struct {
	backend    string
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*Bus)(nil)

// New builds the bus selected by cfg.Backend.
func New(cfg config.EventsConfig) (*Bus, error) {
	logger := NewLogger(logging.WithComponent("events"))

	switch cfg.Backend {
	case "", BackendGoChannel:
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return &Bus{backend: BackendGoChannel, publisher: gc, subscriber: gc}, nil

	case BackendNATS:
		return newNATSBus(cfg, logger)

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func newNATSBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	natsURL := cfg.NATSURL
	var embedded *EmbeddedServer
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServerForURL(cfg.NATSURL, cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		embedded = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	pub, sub, err := newNATSPubSub(natsURL, logger)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, err
	}

	return &Bus{backend: BackendNATS, publisher: pub, subscriber: sub, server: embedded}, nil
}

// newNATSPubSub connects core NATS (no JetStream) publisher and subscriber.
func newNATSPubSub(natsURL string, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("fleetwatch"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	marshaler := &wmNats.NATSMarshaler{}
	jetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   jetStream,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              natsURL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        jetStream,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return pub, sub, nil
}

// Backend returns the configured backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Subscriber returns the subscriber side, consumed by Bridge.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// PublishAlarm publishes one inserted alarm on TopicAlarms.
func (b *Bus) PublishAlarm(ctx context.Context, alarm *models.Alarm) error {
	if alarm == nil {
		return nil
	}
	return b.publish(ctx, TopicAlarms, alarm)
}

// PublishPositions publishes a batch of stored positions on TopicPositions.
// Empty batches are not published.
func (b *Bus) PublishPositions(ctx context.Context, positions []models.Position) error {
	if len(positions) == 0 {
		return nil
	}
	return b.publish(ctx, TopicPositions, PositionsEvent{Positions: positions})
}

func (b *Bus) publish(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.EventPublishErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}

	if err := b.publisher.Publish(topic, msg); err != nil {
		metrics.EventPublishErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Close closes publisher and subscriber, then stops the embedded server.
// It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// gochannel uses one object for both sides.
	if b.backend != BackendGoChannel {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.server != nil {
		b.server.Shutdown()
	}
	return errors.Join(errs...)
}

// NoopPublisher discards every event. Used when events are disabled.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) PublishAlarm(context.Context, *models.Alarm) error { return nil }

func (NoopPublisher) PublishPositions(context.Context, []models.Position) error { return nil }
