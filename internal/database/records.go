// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// InsertRecord stores a record and returns its new id.
func (db *DB) InsertRecord(ctx context.Context, r *models.Record) (int64, error) {
	start := time.Now()
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	visibility := r.Visibility
	if visibility == "" {
		visibility = models.VisibilityOwnerOnly
	}

	query, args, err := sq.Insert("records").
		Columns("survey_id", "species_id", "location_id", "census_method_id", "user_id",
			"when_date", "created_at", "latitude", "longitude", "number", "notes", "held", "visibility").
		Values(r.SurveyID, nullableInt(r.SpeciesID), nullableInt(r.LocationID), nullableInt(r.CensusMethodID), r.UserID,
			r.When, createdAt, nullableFloat(r.Latitude), nullableFloat(r.Longitude), nullableInt(r.Number),
			r.Notes, r.Held, visibility).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build record insert: %w", err)
	}

	id, err := db.insertReturningID(ctx, query, args...)
	observe("insert_record", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	r.ID = id
	r.CreatedAt = createdAt
	r.Visibility = visibility
	return id, nil
}

func (db *DB) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var id int64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// CountRecords returns the number of distinct records matching q.
func (db *DB) CountRecords(ctx context.Context, q RecordQuery) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query, args, err := q.CountBuilder().ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	observe("count_records", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// QueryRecords returns one page of records matching q. A zero limit returns everything.
func (db *DB) QueryRecords(ctx context.Context, q RecordQuery, limit, offset uint64) ([]*models.Record, error) {
	cursor, err := db.openCursor(ctx, q.Page(limit, offset), "query_records")
	if err != nil {
		return nil, err
	}
	defer closeWithLog(cursor, "record cursor")

	var records []*models.Record
	for cursor.Next() {
		records = append(records, cursor.Record())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordByID loads a single record without applying visibility.
func (db *DB) RecordByID(ctx context.Context, id int64) (*models.Record, error) {
	q := RecordQuery{Viewer: Viewer{SeeAll: true}, Filters: []Filter{idFilter(id)}}
	records, err := db.QueryRecords(ctx, q, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, notFound("record", id)
	}
	return records[0], nil
}

type idFilter int64

func (f idFilter) Predicate() sq.Sqlizer { return sq.Eq{"r.id": int64(f)} }
func (f idFilter) Joins() []Join         { return nil }

// OpenCursor runs the full ordered query and returns a forward-only cursor.
// The caller owns the cursor and must Close it. The context must outlive
// the cursor, so no default timeout is applied. OpenCursor waits for a free
// stream slot when too many cursors are open.
func (db *DB) OpenCursor(ctx context.Context, q RecordQuery) (*RecordCursor, error) {
	return db.openStream(ctx, q.SelectBuilder(), "stream_records")
}

// OpenPageCursor is OpenCursor restricted to one page. Zero values mean unbounded.
func (db *DB) OpenPageCursor(ctx context.Context, q RecordQuery, limit, offset uint64) (*RecordCursor, error) {
	return db.openStream(ctx, q.Page(limit, offset), "stream_records_page")
}

func (db *DB) openStream(ctx context.Context, sb sq.SelectBuilder, operation string) (*RecordCursor, error) {
	select {
	case db.streams <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for a stream slot: %w", ctx.Err())
	}
	release := func() { <-db.streams }

	cursor, err := db.openCursor(ctx, sb, operation)
	if err != nil {
		release()
		return nil, err
	}
	cursor.release = release
	return cursor, nil
}

func (db *DB) openCursor(ctx context.Context, sb sq.SelectBuilder, operation string) (*RecordCursor, error) {
	start := time.Now()
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build record query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe(operation, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return &RecordCursor{rows: rows}, nil
}

// RecordCursor iterates a record result set one row at a time.
type RecordCursor struct {
	rows    *sql.Rows
	current *models.Record
	err     error
	release func()
}

// Next advances to the next record. It returns false at the end or on error.
func (c *RecordCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	r, err := scanRecord(c.rows)
	if err != nil {
		c.err = err
		return false
	}
	c.current = r
	return true
}

// Record returns the record at the cursor.
func (c *RecordCursor) Record() *models.Record {
	return c.current
}

// Err returns the first scan or iteration error.
func (c *RecordCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("record cursor: %w", err)
	}
	return nil
}

// Close releases the result set and its stream slot. It is safe to call twice.
func (c *RecordCursor) Close() error {
	err := c.rows.Close()
	if c.release != nil {
		c.release()
		c.release = nil
	}
	return err
}

func scanRecord(rows *sql.Rows) (*models.Record, error) {
	var (
		r                                    models.Record
		speciesID, locationID, censusID      sql.NullInt64
		number                               sql.NullInt64
		lat, lon                             sql.NullFloat64
		sciName, commonName, locName, cmType sql.NullString
		login, surveyName                    sql.NullString
	)
	err := rows.Scan(
		&r.ID, &r.SurveyID, &speciesID, &locationID, &censusID, &r.UserID,
		&r.When, &r.CreatedAt, &lat, &lon, &number, &r.Notes, &r.Held, &r.Visibility,
		&sciName, &commonName, &locName, &cmType, &login, &surveyName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	r.SpeciesID = intPtr(speciesID)
	r.LocationID = intPtr(locationID)
	r.CensusMethodID = intPtr(censusID)
	r.Number = intPtr(number)
	r.Latitude = floatPtr(lat)
	r.Longitude = floatPtr(lon)

	// Joined display columns; Session.Hydrate swaps in the full entities.
	if r.SpeciesID != nil {
		r.Species = &models.Species{ID: *r.SpeciesID, ScientificName: sciName.String, CommonName: commonName.String}
	}
	if r.LocationID != nil {
		r.Location = &models.Location{ID: *r.LocationID, Name: locName.String}
	}
	if r.CensusMethodID != nil {
		r.CensusMethod = &models.CensusMethod{ID: *r.CensusMethodID, Type: cmType.String}
	}
	r.User = &models.User{ID: r.UserID, Login: login.String}
	r.Survey = &models.Survey{ID: r.SurveyID, Name: surveyName.String}
	return &r, nil
}
