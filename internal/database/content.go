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

// Content returns the value stored under key.
func (db *DB) Content(ctx context.Context, key string) (string, error) {
	return queryOne(ctx, db, "content", key,
		sq.Select("value").From("content").Where(sq.Eq{"key": key}), scanString)
}

// SaveContent inserts or replaces the value stored under key.
func (db *DB) SaveContent(ctx context.Context, key, value string) error {
	return db.upsertKV(ctx, "content", key, value)
}

// ContentKeys lists every content key in order.
func (db *DB) ContentKeys(ctx context.Context) ([]string, error) {
	return db.keys(ctx, sq.Select("key").From("content").OrderBy("key"))
}

// ContentKeysLike lists keys matching a SQL LIKE pattern, e.g. "email/%".
func (db *DB) ContentKeysLike(ctx context.Context, pattern string) ([]string, error) {
	return db.keys(ctx, sq.Select("key").From("content").Where(sq.Like{"key": pattern}).OrderBy("key"))
}

func (db *DB) keys(ctx context.Context, sb sq.SelectBuilder) ([]string, error) {
	keys, err := queryMany(ctx, db, "list content keys", sb, scanString)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Preference returns a site preference value.
func (db *DB) Preference(ctx context.Context, key string) (string, error) {
	return queryOne(ctx, db, "preference", key,
		sq.Select("value").From("preferences").Where(sq.Eq{"key": key}), scanString)
}

// SetPreference inserts or replaces a site preference.
func (db *DB) SetPreference(ctx context.Context, key, value string) error {
	return db.upsertKV(ctx, "preferences", key, value)
}

func scanString(s scanner) (string, error) {
	var v string
	err := s.Scan(&v)
	return v, err
}

func (db *DB) upsertKV(ctx context.Context, table, key, value string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query := fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value", table)
	_, err := db.conn.ExecContext(ctx, query, key, value)
	observe("upsert_"+table, start, err)
	if err != nil {
		return fmt.Errorf("failed to save %s %q: %w", table, key, err)
	}
	return nil
}

// Metadata

func scanMetadata(s scanner) (*models.MetadataEntry, error) {
	var (
		m                models.MetadataEntry
		userID, surveyID sql.NullInt64
	)
	if err := s.Scan(&m.ID, &userID, &surveyID, &m.Key, &m.Value); err != nil {
		return nil, err
	}
	m.UserID = intPtr(userID)
	m.SurveyID = intPtr(surveyID)
	return &m, nil
}

// InsertMetadata stores a metadata entry and returns its new id.
func (db *DB) InsertMetadata(ctx context.Context, m *models.MetadataEntry) (int64, error) {
	id, err := db.insertReturningID(ctx,
		"INSERT INTO metadata (user_id, survey_id, key, value) VALUES (?, ?, ?, ?) RETURNING id",
		nullableInt(m.UserID), nullableInt(m.SurveyID), m.Key, m.Value)
	if err != nil {
		return 0, fmt.Errorf("failed to insert metadata %q: %w", m.Key, err)
	}
	m.ID = id
	return id, nil
}

// UserMetadata returns a user's metadata entry for key.
func (db *DB) UserMetadata(ctx context.Context, userID int64, key string) (*models.MetadataEntry, error) {
	return queryOne(ctx, db, "metadata", key,
		sq.Select("id", "user_id", "survey_id", "key", "value").From("metadata").
			Where(sq.Eq{"user_id": userID, "key": key}).OrderBy("id DESC"),
		scanMetadata)
}

// SetUserMetadata replaces a user's metadata entry for key.
func (db *DB) SetUserMetadata(ctx context.Context, userID int64, key, value string) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, "DELETE FROM metadata WHERE user_id = ? AND key = ?", userID, key); err == nil {
		_, err = tx.ExecContext(ctx, "INSERT INTO metadata (user_id, key, value) VALUES (?, ?, ?)", userID, key, value)
	}
	if err == nil {
		err = tx.Commit()
	}
	observe("set_user_metadata", start, err)
	if err != nil {
		return fmt.Errorf("failed to set metadata %q for user %d: %w", key, userID, err)
	}
	return nil
}
