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

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// queryMany runs sb and scans every row with scan.
func queryMany[T any](ctx context.Context, db *DB, operation string, sb sq.SelectBuilder, scan func(scanner) (T, error)) ([]T, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", operation, err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe(operation, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer closeWithLog(rows, operation+" rows")

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", operation, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", operation, err)
	}
	return out, nil
}

// queryOne runs sb and scans a single row; no row yields ErrNotFound.
func queryOne[T any](ctx context.Context, db *DB, entity string, key interface{}, sb sq.SelectBuilder, scan func(scanner) (T, error)) (T, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()

	var zero T
	query, args, err := sb.Limit(1).ToSql()
	if err != nil {
		return zero, fmt.Errorf("failed to build %s query: %w", entity, err)
	}
	v, err := scan(db.conn.QueryRowContext(ctx, query, args...))
	observe("get_"+entity, start, err)
	if err != nil {
		return zero, queryError(entity, key, err)
	}
	return v, nil
}

// Users

var userColumns = []string{"id", "login", "first_name", "last_name", "email", "COALESCE(registration_key, '')", "role", "active"}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Login, &u.FirstName, &u.LastName, &u.Email, &u.RegistrationKey, &u.Role, &u.Active); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID loads a user.
func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return queryOne(ctx, db, "user", id, sq.Select(userColumns...).From("users").Where(sq.Eq{"id": id}), scanUser)
}

// UserByRegistrationKey resolves the ident carried by API requests.
func (db *DB) UserByRegistrationKey(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, notFound("user", "<empty ident>")
	}
	return queryOne(ctx, db, "user", "ident",
		sq.Select(userColumns...).From("users").Where(sq.Eq{"registration_key": key, "active": true}), scanUser)
}

// UsersByIDs loads users keyed by id.
func (db *DB) UsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users, err := queryMany(ctx, db, "load users", sq.Select(userColumns...).From("users").Where(sq.Eq{"id": ids}), scanUser)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// InsertUser stores a user and returns its new id.
func (db *DB) InsertUser(ctx context.Context, u *models.User) (int64, error) {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	var regKey interface{}
	if u.RegistrationKey != "" {
		regKey = u.RegistrationKey
	}
	query, args, err := sq.Insert("users").
		Columns("login", "first_name", "last_name", "email", "registration_key", "role", "active").
		Values(u.Login, u.FirstName, u.LastName, u.Email, regKey, role, u.Active).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build user insert: %w", err)
	}
	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user %s: %w", u.Login, err)
	}
	u.ID = id
	u.Role = role
	return id, nil
}

// Surveys

var surveyColumns = []string{"id", "name", "description", "active", "public", "start_date", "end_date", "renderer_type"}

func scanSurvey(s scanner) (*models.Survey, error) {
	var (
		sv         models.Survey
		start, end sql.NullTime
	)
	if err := s.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.Active, &sv.Public, &start, &end, &sv.RendererType); err != nil {
		return nil, err
	}
	sv.StartDate = timePtr(start)
	sv.EndDate = timePtr(end)
	return &sv, nil
}

// SurveyByID loads a survey.
func (db *DB) SurveyByID(ctx context.Context, id int64) (*models.Survey, error) {
	return queryOne(ctx, db, "survey", id, sq.Select(surveyColumns...).From("surveys").Where(sq.Eq{"id": id}), scanSurvey)
}

// SurveysByIDs loads surveys keyed by id.
func (db *DB) SurveysByIDs(ctx context.Context, ids []int64) (map[int64]*models.Survey, error) {
	surveys, err := queryMany(ctx, db, "load surveys", sq.Select(surveyColumns...).From("surveys").Where(sq.Eq{"id": ids}), scanSurvey)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Survey, len(surveys))
	for _, s := range surveys {
		out[s.ID] = s
	}
	return out, nil
}

// ActiveSurveysForUser lists the active surveys a viewer can record against:
// every active survey for a see-all viewer, otherwise public surveys plus
// those the viewer has records in.
func (db *DB) ActiveSurveysForUser(ctx context.Context, v Viewer) ([]*models.Survey, error) {
	sb := sq.Select(surveyColumns...).From("surveys").Where(sq.Eq{"active": true}).OrderBy("name", "id")
	switch {
	case v.SeeAll:
	case v.UserID == nil:
		sb = sb.Where(sq.Eq{"public": true})
	default:
		sb = sb.Where(sq.Or{
			sq.Eq{"public": true},
			sq.Expr("id IN (SELECT survey_id FROM records WHERE user_id = ?)", *v.UserID),
		})
	}
	return queryMany(ctx, db, "list active surveys", sb, scanSurvey)
}

// InsertSurvey stores a survey and returns its new id.
func (db *DB) InsertSurvey(ctx context.Context, s *models.Survey) (int64, error) {
	renderer := s.RendererType
	if renderer == "" {
		renderer = models.RendererDefault
	}
	query, args, err := sq.Insert("surveys").
		Columns("name", "description", "active", "public", "start_date", "end_date", "renderer_type").
		Values(s.Name, s.Description, s.Active, s.Public, nullableTime(s.StartDate), nullableTime(s.EndDate), renderer).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build survey insert: %w", err)
	}
	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert survey %q: %w", s.Name, err)
	}
	s.ID = id
	s.RendererType = renderer
	return id, nil
}

// Taxonomy and census methods

// InsertTaxonGroup stores a taxon group and returns its new id.
func (db *DB) InsertTaxonGroup(ctx context.Context, g *models.TaxonGroup) (int64, error) {
	id, err := db.insertReturningID(ctx, "INSERT INTO taxon_groups (name) VALUES (?) RETURNING id", g.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert taxon group %q: %w", g.Name, err)
	}
	g.ID = id
	return id, nil
}

// TaxonGroupsByIDs loads taxon groups keyed by id.
func (db *DB) TaxonGroupsByIDs(ctx context.Context, ids []int64) (map[int64]*models.TaxonGroup, error) {
	groups, err := queryMany(ctx, db, "load taxon groups",
		sq.Select("id", "name").From("taxon_groups").Where(sq.Eq{"id": ids}),
		func(s scanner) (*models.TaxonGroup, error) {
			var g models.TaxonGroup
			return &g, s.Scan(&g.ID, &g.Name)
		})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.TaxonGroup, len(groups))
	for _, g := range groups {
		out[g.ID] = g
	}
	return out, nil
}

func scanSpecies(s scanner) (*models.Species, error) {
	var (
		sp    models.Species
		group sql.NullInt64
	)
	if err := s.Scan(&sp.ID, &sp.ScientificName, &sp.CommonName, &group); err != nil {
		return nil, err
	}
	sp.TaxonGroupID = intPtr(group)
	return &sp, nil
}

// InsertSpecies stores a species and returns its new id.
func (db *DB) InsertSpecies(ctx context.Context, sp *models.Species) (int64, error) {
	id, err := db.insertReturningID(ctx,
		"INSERT INTO species (scientific_name, common_name, taxon_group_id) VALUES (?, ?, ?) RETURNING id",
		sp.ScientificName, sp.CommonName, nullableInt(sp.TaxonGroupID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert species %q: %w", sp.ScientificName, err)
	}
	sp.ID = id
	return id, nil
}

// SpeciesByIDs loads species keyed by id.
func (db *DB) SpeciesByIDs(ctx context.Context, ids []int64) (map[int64]*models.Species, error) {
	species, err := queryMany(ctx, db, "load species",
		sq.Select("id", "scientific_name", "common_name", "taxon_group_id").From("species").Where(sq.Eq{"id": ids}), scanSpecies)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Species, len(species))
	for _, sp := range species {
		out[sp.ID] = sp
	}
	return out, nil
}

// SpeciesByName finds a species by case-insensitive scientific or common name.
func (db *DB) SpeciesByName(ctx context.Context, name string) (*models.Species, error) {
	return queryOne(ctx, db, "species", name,
		sq.Select("id", "scientific_name", "common_name", "taxon_group_id").From("species").
			Where(sq.Or{sq.ILike{"scientific_name": name}, sq.ILike{"common_name": name}}).OrderBy("id"),
		scanSpecies)
}

func scanCensusMethod(s scanner) (*models.CensusMethod, error) {
	var cm models.CensusMethod
	return &cm, s.Scan(&cm.ID, &cm.Name, &cm.Type)
}

// InsertCensusMethod stores a census method and returns its new id.
func (db *DB) InsertCensusMethod(ctx context.Context, cm *models.CensusMethod) (int64, error) {
	id, err := db.insertReturningID(ctx, "INSERT INTO census_methods (name, type) VALUES (?, ?) RETURNING id", cm.Name, cm.Type)
	if err != nil {
		return 0, fmt.Errorf("failed to insert census method %q: %w", cm.Name, err)
	}
	cm.ID = id
	return id, nil
}

// CensusMethodsByIDs loads census methods keyed by id.
func (db *DB) CensusMethodsByIDs(ctx context.Context, ids []int64) (map[int64]*models.CensusMethod, error) {
	methods, err := queryMany(ctx, db, "load census methods",
		sq.Select("id", "name", "type").From("census_methods").Where(sq.Eq{"id": ids}), scanCensusMethod)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.CensusMethod, len(methods))
	for _, cm := range methods {
		out[cm.ID] = cm
	}
	return out, nil
}
