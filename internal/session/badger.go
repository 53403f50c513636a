// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// gcDiscardRatio is the value log rewrite threshold used by RunGC.
const gcDiscardRatio = 0.5

// BadgerStore keeps parameters in BadgerDB with a per-entry TTL.
type BadgerStore struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
}

// OpenBadger opens the store described by cfg. With InMemory set nothing
// is written to disk.
func OpenBadger(cfg config.SessionConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Dur("ttl", cfg.TTL).Msg("Session store opened")
	return &BadgerStore{db: db, ttl: cfg.TTL, inMemory: cfg.InMemory}, nil
}

// SaveParams replaces the stored parameters and restarts their TTL.
func (s *BadgerStore) SaveParams(_ context.Context, sessionID string, params url.Values) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(paramsKey(sessionID), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// LoadParams returns the stored parameters or ErrNotFound.
func (s *BadgerStore) LoadParams(_ context.Context, sessionID string) (url.Values, error) {
	var params url.Values
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(paramsKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get params: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &params)
		})
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

// ClearParams removes the stored parameters. Clearing twice is not an error.
func (s *BadgerStore) ClearParams(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(paramsKey(sessionID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete params: %w", err)
		}
		return nil
	})
}

// RunGC rewrites value log files until there is nothing left to reclaim.
// It returns the number of files rewritten. In-memory stores have no value
// log and return immediately.
func (s *BadgerStore) RunGC() (int, error) {
	if s.inMemory {
		return 0, nil
	}
	n := 0
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
