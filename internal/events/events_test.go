// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

type countingInvalidator struct {
	calls atomic.Int32
	done  chan struct{}
}

func (c *countingInvalidator) Invalidate() {
	if c.calls.Add(1) == 1 {
		close(c.done)
	}
}

func testRouterConfig() RouterConfig {
	cfg := DefaultRouterConfig()
	cfg.CloseTimeout = time.Second
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = time.Millisecond
	return cfg
}

func TestPublishImportedPayload(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	msgs, err := bus.Subscriber().Subscribe(context.Background(), TopicRecordsImported)
	require.NoError(t, err)

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	go func() {
		_ = bus.PublishImported(ctx, models.ImportResult{
			Imported: 3,
			IDs:      map[string]int{"Record": 2, "Survey": 1},
			Messages: []string{"note"},
		})
	}()

	select {
	case msg := <-msgs:
		msg.Ack()
		var ev ImportedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		assert.Equal(t, 3, ev.Imported)
		assert.Equal(t, map[string]int{"Record": 2, "Survey": 1}, ev.Kinds)
		assert.Equal(t, 1, ev.Messages)
		assert.Equal(t, "corr-1", msg.Metadata.Get(MetadataCorrelationID))
		assert.Equal(t, "importer", msg.Metadata.Get(MetadataSource))
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRouterInvalidatesOnImport(t *testing.T) {
	bus := NewBus(nil)
	router, err := NewRouter(testRouterConfig(), bus)
	require.NoError(t, err)

	inv := &countingInvalidator{done: make(chan struct{})}
	router.InvalidateOnImport("facet-cache", inv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	assert.True(t, router.IsRunning())

	require.NoError(t, bus.PublishImported(context.Background(), models.ImportResult{Imported: 1}))

	select {
	case <-inv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("invalidator not called")
	}
	assert.Equal(t, int32(1), inv.calls.Load())

	require.NoError(t, router.Close())
	require.NoError(t, bus.Close())
}

func TestRouterAcksMalformedPayload(t *testing.T) {
	bus := NewBus(nil)
	router, err := NewRouter(testRouterConfig(), bus)
	require.NoError(t, err)

	inv := &countingInvalidator{done: make(chan struct{})}
	router.InvalidateOnImport("facet-cache", inv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	require.NoError(t, bus.Publisher().Publish(TopicRecordsImported,
		message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, bus.PublishImported(context.Background(), models.ImportResult{Imported: 2}))

	select {
	case <-inv.done:
	case <-time.After(5 * time.Second):
		t.Fatal("invalidator not called after malformed message")
	}
	assert.Equal(t, int32(1), inv.calls.Load())

	require.NoError(t, router.Close())
	require.NoError(t, bus.Close())
}
