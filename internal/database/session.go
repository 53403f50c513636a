// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"fmt"

	"github.com/gaiaresources/bdrs-review/internal/metrics"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Session is a per-request identity map. Entities referenced by records are
// loaded once per session and shared by every record that points at them.
// A Session is not safe for concurrent use.
type Session struct {
	db *DB

	species       map[int64]*models.Species
	locations     map[int64]*models.Location
	censusMethods map[int64]*models.CensusMethod
	users         map[int64]*models.User
	surveys       map[int64]*models.Survey

	clears int
}

// NewSession starts an empty session.
func (db *DB) NewSession() *Session {
	s := &Session{db: db}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.species = make(map[int64]*models.Species)
	s.locations = make(map[int64]*models.Location)
	s.censusMethods = make(map[int64]*models.CensusMethod)
	s.users = make(map[int64]*models.User)
	s.surveys = make(map[int64]*models.Survey)
}

// Clear evicts every cached entity.
func (s *Session) Clear() {
	s.reset()
	s.clears++
	metrics.RecordSessionClear()
}

// Clears returns how many times Clear has been called.
func (s *Session) Clears() int {
	return s.clears
}

// Size returns the number of cached entities.
func (s *Session) Size() int {
	return len(s.species) + len(s.locations) + len(s.censusMethods) + len(s.users) + len(s.surveys)
}

// missing returns the ids not yet present in cache, deduplicated.
func missing[T any](cache map[int64]T, ids []int64) []int64 {
	var out []int64
	seen := make(map[int64]bool)
	for _, id := range ids {
		if _, ok := cache[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// fill loads the missing ids into cache.
func fill[T any](ctx context.Context, cache map[int64]T, ids []int64, load func(context.Context, []int64) (map[int64]T, error)) error {
	need := missing(cache, ids)
	if len(need) == 0 {
		return nil
	}
	loaded, err := load(ctx, need)
	if err != nil {
		return err
	}
	for id, v := range loaded {
		cache[id] = v
	}
	return nil
}

// Hydrate attaches full associated entities and attribute values to a batch
// of records.
func (s *Session) Hydrate(ctx context.Context, records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var speciesIDs, locationIDs, methodIDs, userIDs, surveyIDs, recordIDs []int64
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
		userIDs = append(userIDs, r.UserID)
		surveyIDs = append(surveyIDs, r.SurveyID)
		if r.SpeciesID != nil {
			speciesIDs = append(speciesIDs, *r.SpeciesID)
		}
		if r.LocationID != nil {
			locationIDs = append(locationIDs, *r.LocationID)
		}
		if r.CensusMethodID != nil {
			methodIDs = append(methodIDs, *r.CensusMethodID)
		}
	}

	if err := fill(ctx, s.species, speciesIDs, s.db.SpeciesByIDs); err != nil {
		return fmt.Errorf("hydrate species: %w", err)
	}
	if err := fill(ctx, s.locations, locationIDs, s.db.LocationsMap); err != nil {
		return fmt.Errorf("hydrate locations: %w", err)
	}
	if err := fill(ctx, s.censusMethods, methodIDs, s.db.CensusMethodsByIDs); err != nil {
		return fmt.Errorf("hydrate census methods: %w", err)
	}
	if err := fill(ctx, s.users, userIDs, s.db.UsersByIDs); err != nil {
		return fmt.Errorf("hydrate users: %w", err)
	}
	if err := fill(ctx, s.surveys, surveyIDs, s.db.SurveysByIDs); err != nil {
		return fmt.Errorf("hydrate surveys: %w", err)
	}

	values, err := s.db.AttributeValuesForRecords(ctx, recordIDs)
	if err != nil {
		return fmt.Errorf("hydrate attribute values: %w", err)
	}

	for _, r := range records {
		if r.SpeciesID != nil {
			if sp, ok := s.species[*r.SpeciesID]; ok {
				r.Species = sp
			}
		}
		if r.LocationID != nil {
			if l, ok := s.locations[*r.LocationID]; ok {
				r.Location = l
			}
		}
		if r.CensusMethodID != nil {
			if cm, ok := s.censusMethods[*r.CensusMethodID]; ok {
				r.CensusMethod = cm
			}
		}
		if u, ok := s.users[r.UserID]; ok {
			r.User = u
		}
		if sv, ok := s.surveys[r.SurveyID]; ok {
			r.Survey = sv
		}
		r.AttributeValues = values[r.ID]
	}
	return nil
}
