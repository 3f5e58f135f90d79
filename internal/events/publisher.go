// Clipgate - Video Clip Ingestion Service for Grava Nois
// Copyright 2026 Grava Nois
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gravanois/clipgate

/*
publisher.go - Clip event publication over NATS JetStream

Publication is best-effort by contract: the registry row is the source of
truth, and a lost event never rolls back a verified clip. There is no outbox
and no retry queue; consumers that need completeness reconcile against the
registry.
*/
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/gravanois/clipgate/internal/config"
	"github.com/gravanois/clipgate/internal/logging"
	"github.com/gravanois/clipgate/internal/metrics"
)

// Publisher emits clip lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishClipCreated(ctx context.Context, event *ClipEvent) error
	Close() error
}

// NATSPublisher wraps a Watermill NATS publisher with reconnection handling.
// The clip ID is used as Nats-Msg-Id so a retried confirm cannot produce a
// duplicate event within the stream's deduplication window.
type NATSPublisher struct {
	publisher message.Publisher
	timeout   time.Duration
	mu        sync.RWMutex
	closed    bool
	logger    watermill.LoggerAdapter
}

// NewNATSPublisher creates a JetStream publisher from the NATS configuration.
func NewNATSPublisher(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*NATSPublisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by StreamInitializer
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &NATSPublisher{
		publisher: pub,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// PublishClipCreated serializes and publishes a clip event on the subject
// for its contract type.
func (p *NATSPublisher) PublishClipCreated(ctx context.Context, event *ClipEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.ClipID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, event.ClipID)
	msg.Metadata.Set("contract_type", string(event.ContractType))
	msg.Metadata.Set("venue_id", event.VenueID)

	start := time.Now()
	err = p.publisher.Publish(event.Topic(), msg)
	metrics.RecordNATSPublish(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish clip event %s: %w", event.ClipID, err)
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

// NoopPublisher discards events. Used when NATS is disabled; all other code
// paths stay identical so enabling events is purely a configuration change.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops all events.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// PublishClipCreated validates the event and discards it.
func (p *NoopPublisher) PublishClipCreated(ctx context.Context, event *ClipEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	logging.Debug().Str("clip_id", event.ClipID).Msg("Event publication disabled, dropping clip event")
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
