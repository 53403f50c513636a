// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package session

import (
	"context"
	"net/url"
	"sync"
	"time"
)

type memoryEntry struct {
	params  url.Values
	expires time.Time
}

// MemoryStore is a map-backed Store for tests and single-process setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns an empty store. A ttl of zero never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) SaveParams(_ context.Context, sessionID string, params url.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{params: cloneValues(params)}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.entries[sessionID] = e
	return nil
}

func (s *MemoryStore) LoadParams(_ context.Context, sessionID string) (url.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.entries, sessionID)
		return nil, ErrNotFound
	}
	return cloneValues(e.params), nil
}

func (s *MemoryStore) ClearParams(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
