// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package events

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	fail   bool
	calls  int
	closed bool
}

func (p *flakyPublisher) Publish(string, ...*message.Message) error {
	p.calls++
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *flakyPublisher) Close() error {
	p.closed = true
	return nil
}

func TestBreakerPublisherOpensAfterFailures(t *testing.T) {
	next := &flakyPublisher{fail: true}
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour
	p := NewBreakerPublisher(next, cfg)
	msg := message.NewMessage(watermill.NewUUID(), []byte("{}"))

	for i := 0; i < 3; i++ {
		assert.EqualError(t, p.Publish(TopicRecordsImported, msg), "broker unavailable")
	}
	assert.Equal(t, "open", p.State())

	err := p.Publish(TopicRecordsImported, msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, next.calls)

	require.NoError(t, p.Close())
	assert.True(t, next.closed)
}

func TestBreakerPublisherRecovers(t *testing.T) {
	next := &flakyPublisher{fail: true}
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 1
	cfg.Timeout = 10 * time.Millisecond
	p := NewBreakerPublisher(next, cfg)
	msg := message.NewMessage(watermill.NewUUID(), nil)

	assert.Error(t, p.Publish(TopicRecordsImported, msg))
	assert.Equal(t, "open", p.State())

	next.fail = false
	assert.Eventually(t, func() bool { return p.State() == "half-open" }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Publish(TopicRecordsImported, msg))
	assert.Equal(t, "closed", p.State())
}
