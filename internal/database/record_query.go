// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Join is an extra JOIN a filter needs. Joins are deduplicated by Alias.
type Join struct {
	Alias  string
	Clause string
}

// Filter contributes a predicate (and the joins it references) to a record query.
type Filter interface {
	Predicate() sq.Sqlizer
	Joins() []Join
}

// Viewer identifies who is looking at records. A nil UserID is anonymous.
type Viewer struct {
	UserID *int64
	SeeAll bool
}

// Anonymous is the viewer for requests without an identified user.
var Anonymous = Viewer{}

// Predicate restricts records to what the viewer may see.
func (v Viewer) Predicate() sq.Sqlizer {
	if v.SeeAll {
		return nil
	}
	public := sq.And{sq.Eq{"r.visibility": models.VisibilityPublic}, sq.Eq{"r.held": false}}
	if v.UserID == nil {
		return public
	}
	return sq.Or{sq.Eq{"r.user_id": *v.UserID}, public}
}

// Sort properties accepted from request parameters, mapped to output columns.
var sortColumns = map[string]string{
	"record.when":            "when_date",
	"species.scientificName": "species_scientific_name",
	"species.commonName":     "species_common_name",
	"location.name":          "location_name",
	"censusMethod.type":      "census_method_type",
	"record.user":            "user_login",
}

// SortColumn returns the output column for an allow-listed sort property.
func SortColumn(property string) (string, bool) {
	col, ok := sortColumns[property]
	return col, ok
}

// NormalizeSortOrder returns ASC or DESC, or "" for anything else.
func NormalizeSortOrder(order string) string {
	switch strings.ToUpper(strings.TrimSpace(order)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return ""
}

// searchColumns are ORed together for free-text search.
var searchColumns = []string{"r.notes", "s.scientific_name", "s.common_name"}

// recordColumns is the select list scanned by scanRecord, in order.
var recordColumns = []string{
	"r.id", "r.survey_id", "r.species_id", "r.location_id", "r.census_method_id", "r.user_id",
	"r.when_date", "r.created_at", "r.latitude", "r.longitude", "r.number", "r.notes", "r.held", "r.visibility",
	"s.scientific_name AS species_scientific_name",
	"s.common_name AS species_common_name",
	"l.name AS location_name",
	"cm.type AS census_method_type",
	"u.login AS user_login",
	"sv.name AS survey_name",
}

// baseJoins are always present; facets may reference their aliases.
var baseJoins = []string{
	"locations l ON l.id = r.location_id",
	"species s ON s.id = r.species_id",
	"census_methods cm ON cm.id = r.census_method_id",
	"users u ON u.id = r.user_id",
	"surveys sv ON sv.id = r.survey_id",
}

// RecordQuery describes a filtered, searched and sorted record selection.
type RecordQuery struct {
	Filters      []Filter
	SurveyID     *int64
	SearchText   string
	SortProperty string
	SortOrder    string
	Viewer       Viewer
}

// SortHonored reports whether the requested sort will reach the query.
func (q RecordQuery) SortHonored() bool {
	_, ok := SortColumn(q.SortProperty)
	return ok && NormalizeSortOrder(q.SortOrder) != ""
}

func (q RecordQuery) from(sb sq.SelectBuilder) sq.SelectBuilder {
	sb = sb.From("records r")
	for _, j := range baseJoins {
		sb = sb.LeftJoin(j)
	}
	seen := make(map[string]bool)
	for _, f := range q.Filters {
		for _, j := range f.Joins() {
			if seen[j.Alias] {
				continue
			}
			seen[j.Alias] = true
			sb = sb.JoinClause(j.Clause)
		}
	}
	return sb
}

func (q RecordQuery) where(sb sq.SelectBuilder) sq.SelectBuilder {
	for _, f := range q.Filters {
		if p := f.Predicate(); p != nil {
			sb = sb.Where(p)
		}
	}
	if text := strings.TrimSpace(q.SearchText); text != "" {
		like := "%" + text + "%"
		or := sq.Or{}
		for _, col := range searchColumns {
			or = append(or, sq.ILike{col: like})
		}
		sb = sb.Where(or)
	}
	if q.SurveyID != nil {
		sb = sb.Where(sq.Eq{"r.survey_id": *q.SurveyID})
	}
	if p := q.Viewer.Predicate(); p != nil {
		sb = sb.Where(p)
	}
	return sb
}

// SelectBuilder returns the ordered record select.
func (q RecordQuery) SelectBuilder() sq.SelectBuilder {
	sb := q.where(q.from(sq.Select(recordColumns...).Distinct()))
	if q.SortHonored() {
		col, _ := SortColumn(q.SortProperty)
		sb = sb.OrderBy(col + " " + NormalizeSortOrder(q.SortOrder))
	}
	return sb.OrderBy("r.id ASC")
}

// CountBuilder returns the COUNT(DISTINCT r.id) query with identical joins and predicates.
func (q RecordQuery) CountBuilder() sq.SelectBuilder {
	return q.where(q.from(sq.Select("COUNT(DISTINCT r.id)")))
}

// Page returns the select limited to one page. Zero values mean unbounded.
func (q RecordQuery) Page(limit, offset uint64) sq.SelectBuilder {
	sb := q.SelectBuilder()
	if limit > 0 {
		sb = sb.Limit(limit)
	}
	if offset > 0 {
		sb = sb.Offset(offset)
	}
	return sb
}
