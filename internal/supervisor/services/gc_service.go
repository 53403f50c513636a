// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package services

import (
	"context"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// GarbageCollector reclaims space in a store and reports how many passes
// rewrote anything.
type GarbageCollector interface {
	RunGC() (int, error)
}

// BadgerGCService runs value log GC on the session store every interval.
// GC errors are logged and the loop carries on; they never restart it.
type BadgerGCService struct {
	store    GarbageCollector
	interval time.Duration
	passes   chan int
}

// NewBadgerGCService creates the service. interval defaults to 10 minutes.
func NewBadgerGCService(store GarbageCollector, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &BadgerGCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *BadgerGCService) collect() {
	start := time.Now()
	n, err := s.store.RunGC()
	if err != nil {
		logging.Warn().Err(err).Msg("Session store GC failed")
		return
	}
	if n > 0 {
		logging.Debug().
			Int("rewrites", n).
			Dur("duration", time.Since(start)).
			Msg("Session store GC reclaimed space")
	}
}

func (s *BadgerGCService) String() string {
	return "session-gc"
}
