// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package events carries in-process notifications between components on a
// watermill go channel pub/sub. Imports publish to TopicRecordsImported and
// the router invalidates derived caches when they arrive.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// TopicRecordsImported receives one message per import that stored data.
const TopicRecordsImported = "records.imported"

// Message metadata keys.
const (
	MetadataCorrelationID = "correlation_id"
	MetadataSource        = "source"
)

// ImportedEvent is the payload published on TopicRecordsImported.
type ImportedEvent struct {
	Imported int            `json:"imported"`
	Kinds    map[string]int `json:"kinds"`
	Messages int            `json:"messages"`
	At       time.Time      `json:"at"`
}

// Bus is the in-process publisher and subscriber.
type Bus struct {
	pubsub    *gochannel.GoChannel
	publisher *BreakerPublisher
	logger    watermill.LoggerAdapter
}

// NewBus creates a bus. Messages are not persisted, so subscribers only see
// what is published after they subscribe.
func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Bus{
		pubsub:    pubsub,
		publisher: NewBreakerPublisher(pubsub, DefaultBreakerConfig()),
		logger:    logger,
	}
}

// Publisher returns the bus as a watermill publisher, behind the breaker.
func (b *Bus) Publisher() message.Publisher { return b.publisher }

// Subscriber returns the bus as a watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.pubsub }

// PublishImported announces a finished import.
func (b *Bus) PublishImported(ctx context.Context, result models.ImportResult) error {
	payload, err := json.Marshal(ImportedEvent{
		Imported: result.Imported,
		Kinds:    result.IDs,
		Messages: len(result.Messages),
		At:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal import event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataSource, "importer")
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}
	if err := b.publisher.Publish(TopicRecordsImported, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicRecordsImported, err)
	}
	return nil
}

// Close stops the pub/sub. Pending subscriptions are closed.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
