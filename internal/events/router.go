// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// RouterConfig holds router tuning.
type RouterConfig struct {
	// CloseTimeout is how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Invalidator drops cached state derived from the record store.
type Invalidator interface {
	Invalidate()
}

// Router dispatches bus messages to handlers with panic recovery and retry.
type Router struct {
	router *message.Router
	bus    *Bus
}

// NewRouter creates a router consuming from bus.
func NewRouter(cfg RouterConfig, bus *Bus) (*Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Recoverer must be outermost so a panicking handler is retried like an error.
	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          bus.logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	return &Router{router: wmRouter, bus: bus}, nil
}

// InvalidateOnImport registers a handler that calls inv for every import event.
func (r *Router) InvalidateOnImport(name string, inv Invalidator) {
	r.router.AddConsumerHandler(name, TopicRecordsImported, r.bus.Subscriber(), func(msg *message.Message) error {
		var ev ImportedEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// a malformed payload will never decode, so it is acked and dropped
			logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed import event")
			return nil
		}
		inv.Invalidate()
		logging.Debug().
			Str("handler", name).
			Int("imported", ev.Imported).
			Str(MetadataCorrelationID, msg.Metadata.Get(MetadataCorrelationID)).
			Msg("Invalidated after import")
		return nil
	})
}

// Run blocks until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.router.IsRunning()
}

// Close stops the router, waiting up to CloseTimeout for handlers.
func (r *Router) Close() error {
	return r.router.Close()
}
