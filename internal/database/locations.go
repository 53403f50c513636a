// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

var locationColumns = []string{"id", "name", "user_id", "survey_id", "latitude", "longitude", "wkt"}

func scanLocation(s scanner) (*models.Location, error) {
	var (
		l                models.Location
		userID, surveyID sql.NullInt64
		lat, lon         sql.NullFloat64
	)
	if err := s.Scan(&l.ID, &l.Name, &userID, &surveyID, &lat, &lon, &l.WKT); err != nil {
		return nil, err
	}
	l.UserID = intPtr(userID)
	l.SurveyID = intPtr(surveyID)
	l.Latitude = floatPtr(lat)
	l.Longitude = floatPtr(lon)
	return &l, nil
}

// LocationByID loads a location.
func (db *DB) LocationByID(ctx context.Context, id int64) (*models.Location, error) {
	return queryOne(ctx, db, "location", id,
		sq.Select(locationColumns...).From("locations").Where(sq.Eq{"id": id}), scanLocation)
}

// LocationsByIDs loads locations in id order. Unknown ids are skipped.
func (db *DB) LocationsByIDs(ctx context.Context, ids []int64) ([]*models.Location, error) {
	return queryMany(ctx, db, "load locations",
		sq.Select(locationColumns...).From("locations").Where(sq.Eq{"id": ids}).OrderBy("id"), scanLocation)
}

// LocationsMap loads locations keyed by id.
func (db *DB) LocationsMap(ctx context.Context, ids []int64) (map[int64]*models.Location, error) {
	locs, err := db.LocationsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Location, len(locs))
	for _, l := range locs {
		out[l.ID] = l
	}
	return out, nil
}

// LocationsForRecords lists the distinct locations referenced by records
// matching q. Sorting on q is ignored.
func (db *DB) LocationsForRecords(ctx context.Context, q RecordQuery) ([]*models.Location, error) {
	cols := make([]string, len(locationColumns))
	for i, c := range locationColumns {
		cols[i] = "l." + c
	}
	sb := q.where(q.from(sq.Select(cols...).Distinct())).Where(sq.NotEq{"l.id": nil}).OrderBy("l.id")
	return queryMany(ctx, db, "locations for records", sb, scanLocation)
}

// InsertLocation stores a location and returns its new id.
func (db *DB) InsertLocation(ctx context.Context, l *models.Location) (int64, error) {
	query, args, err := sq.Insert("locations").
		Columns("name", "user_id", "survey_id", "latitude", "longitude", "wkt").
		Values(l.Name, nullableInt(l.UserID), nullableInt(l.SurveyID), nullableFloat(l.Latitude), nullableFloat(l.Longitude), l.WKT).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build location insert: %w", err)
	}
	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert location %q: %w", l.Name, err)
	}
	l.ID = id
	return id, nil
}
