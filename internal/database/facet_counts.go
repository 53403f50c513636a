// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Grouping asks for record counts grouped by a key expression, e.g.
// Key "r.survey_id" with Label "sv.name".
type Grouping struct {
	Key    string
	Label  string
	Joins  []Join
	Where  sq.Sqlizer
	Viewer Viewer
}

// GroupCount is one facet option with the number of visible records carrying it.
type GroupCount struct {
	Key   string
	Label string
	Count int64
}

// GroupCounts counts visible records per distinct key, ordered by label.
// Records where the key is NULL are not counted.
func (db *DB) GroupCounts(ctx context.Context, g Grouping) ([]GroupCount, error) {
	q := RecordQuery{Viewer: g.Viewer, Filters: []Filter{groupingFilter{g}}}
	key := fmt.Sprintf("CAST((%s) AS VARCHAR)", g.Key)
	label := fmt.Sprintf("COALESCE(CAST((%s) AS VARCHAR), '')", g.Label)

	sb := q.where(q.from(sq.Select(key+" AS option_key", label+" AS option_label", "COUNT(DISTINCT r.id) AS option_count"))).
		Where(sq.Expr("("+g.Key+") IS NOT NULL")).
		GroupBy(key, label).
		OrderBy("option_label", "option_key")

	return queryMany(ctx, db, "facet counts", sb, func(s scanner) (GroupCount, error) {
		var c GroupCount
		err := s.Scan(&c.Key, &c.Label, &c.Count)
		return c, err
	})
}

type groupingFilter struct{ g Grouping }

func (f groupingFilter) Predicate() sq.Sqlizer { return f.g.Where }
func (f groupingFilter) Joins() []Join         { return f.g.Joins }
