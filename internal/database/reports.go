// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

func scanReport(s scanner) (*models.Report, error) {
	var r models.Report
	return &r, s.Scan(&r.ID, &r.Name, &r.Description, &r.Kind, &r.Active)
}

// ActiveReports lists reports offered on the review page.
func (db *DB) ActiveReports(ctx context.Context) ([]models.Report, error) {
	reports, err := queryMany(ctx, db, "list reports",
		sq.Select("id", "name", "description", "kind", "active").From("reports").
			Where(sq.Eq{"active": true}).OrderBy("name", "id"),
		scanReport)
	if err != nil {
		return nil, err
	}
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		out = append(out, *r)
	}
	return out, nil
}

// ReportByID loads a report.
func (db *DB) ReportByID(ctx context.Context, id int64) (*models.Report, error) {
	return queryOne(ctx, db, "report", id,
		sq.Select("id", "name", "description", "kind", "active").From("reports").Where(sq.Eq{"id": id}),
		scanReport)
}

// InsertReport registers a report and returns its new id.
func (db *DB) InsertReport(ctx context.Context, r *models.Report) (int64, error) {
	id, err := db.insertReturningID(ctx,
		"INSERT INTO reports (name, description, kind, active) VALUES (?, ?, ?, ?) RETURNING id",
		r.Name, r.Description, r.Kind, r.Active)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report %q: %w", r.Name, err)
	}
	r.ID = id
	return id, nil
}
