// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
)

type stubFilter struct {
	pred  sq.Sqlizer
	joins []Join
}

func (f stubFilter) Predicate() sq.Sqlizer { return f.pred }
func (f stubFilter) Joins() []Join         { return f.joins }

func TestRecordQuerySQL(t *testing.T) {
	t.Parallel()

	join := Join{Alias: "tg", Clause: "LEFT JOIN taxon_groups tg ON tg.id = s.taxon_group_id"}
	q := RecordQuery{
		Filters: []Filter{
			stubFilter{pred: sq.Eq{"tg.id": []int64{1, 2}}, joins: []Join{join}},
			stubFilter{pred: sq.Eq{"r.survey_id": int64(3)}, joins: []Join{join}},
		},
		SearchText:   "magpie",
		SortProperty: "species.commonName",
		SortOrder:    "asc",
	}

	query, args, err := q.SelectBuilder().ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}

	if !strings.HasPrefix(query, "SELECT DISTINCT r.id") {
		t.Errorf("query should select distinct records: %s", query)
	}
	if n := strings.Count(query, "taxon_groups tg"); n != 1 {
		t.Errorf("taxon group join appears %d times, want 1", n)
	}
	if !strings.Contains(query, "r.notes ILIKE ? OR s.scientific_name ILIKE ? OR s.common_name ILIKE ?") {
		t.Errorf("query missing search clause: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY species_common_name ASC, r.id ASC") {
		t.Errorf("query ordering wrong: %s", query)
	}
	if !strings.Contains(query, "r.visibility = ?") {
		t.Errorf("anonymous query missing visibility predicate: %s", query)
	}

	found := 0
	for _, a := range args {
		if a == "%magpie%" {
			found++
		}
	}
	if found != 3 {
		t.Errorf("search arg appears %d times, want 3 (args %v)", found, args)
	}
}

func TestRecordQuerySortAllowList(t *testing.T) {
	t.Parallel()

	plain, _, err := RecordQuery{}.SelectBuilder().ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}

	tests := []struct {
		name     string
		property string
		order    string
		honored  bool
	}{
		{"allowed property and order", "record.when", "DESC", true},
		{"order is case insensitive", "location.name", "desc", true},
		{"unknown property", "record.notes", "ASC", false},
		{"injection attempt", "record.when; DROP TABLE records", "ASC", false},
		{"missing order", "record.when", "", false},
		{"bad order", "record.when", "UP", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := RecordQuery{SortProperty: tt.property, SortOrder: tt.order}
			if got := q.SortHonored(); got != tt.honored {
				t.Fatalf("SortHonored() = %v, want %v", got, tt.honored)
			}
			query, _, err := q.SelectBuilder().ToSql()
			if err != nil {
				t.Fatalf("ToSql() error = %v", err)
			}
			if !tt.honored && query != plain {
				t.Errorf("ignored sort changed the query:\n got %s\nwant %s", query, plain)
			}
			if tt.honored && query == plain {
				t.Error("honored sort did not change the query")
			}
		})
	}
}

func TestViewerPredicate(t *testing.T) {
	t.Parallel()

	if p := (Viewer{SeeAll: true}).Predicate(); p != nil {
		t.Errorf("see-all viewer predicate = %v, want nil", p)
	}

	sqlAnon, argsAnon, _ := Anonymous.Predicate().ToSql()
	if sqlAnon != "(r.visibility = ? AND r.held = ?)" || len(argsAnon) != 2 {
		t.Errorf("anonymous predicate = %s %v", sqlAnon, argsAnon)
	}

	id := int64(7)
	sqlUser, argsUser, _ := Viewer{UserID: &id}.Predicate().ToSql()
	if !strings.HasPrefix(sqlUser, "(r.user_id = ? OR ") || argsUser[0] != int64(7) {
		t.Errorf("user predicate = %s %v", sqlUser, argsUser)
	}
}

func TestCountRecordsVisibility(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	tests := []struct {
		name   string
		viewer Viewer
		want   int64
	}{
		{"anonymous sees public unheld", Anonymous, 3},
		{"owner also sees own private record", Viewer{UserID: &f.alice}, 4},
		{"owner sees own held record", Viewer{UserID: &f.bob}, 4},
		{"see all", Viewer{SeeAll: true}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.CountRecords(ctx, RecordQuery{Viewer: tt.viewer})
			if err != nil {
				t.Fatalf("CountRecords() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CountRecords() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQueryRecordsSearch(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	all := Viewer{SeeAll: true}

	tests := []struct {
		text string
		want []int64
	}{
		{"MAGPIE", []int64{f.records[0], f.records[1]}},
		{"gymnorhina", []int64{f.records[0], f.records[1]}},
		{"Dusk", []int64{f.records[3]}},
		{"bell", []int64{f.records[2], f.records[3]}},
		{"raptor", []int64{f.records[4]}},
		{"nothing matches this", nil},
		{"   ", f.records},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := db.QueryRecords(ctx, RecordQuery{Viewer: all, SearchText: tt.text}, 0, 0)
			if err != nil {
				t.Fatalf("QueryRecords() error = %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("QueryRecords(%q) = %v, want %v", tt.text, ids(got), tt.want)
			}
			count, err := db.CountRecords(ctx, RecordQuery{Viewer: all, SearchText: tt.text})
			if err != nil {
				t.Fatalf("CountRecords() error = %v", err)
			}
			if count != int64(len(tt.want)) {
				t.Errorf("CountRecords(%q) = %d, want %d", tt.text, count, len(tt.want))
			}
		})
	}
}

func TestQueryRecordsOrderingAndPaging(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	all := Viewer{SeeAll: true}
	r := f.records

	byWhenDesc, err := db.QueryRecords(ctx, RecordQuery{Viewer: all, SortProperty: "record.when", SortOrder: "DESC"}, 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if want := []int64{r[1], r[4], r[0], r[3], r[2]}; !equalIDs(ids(byWhenDesc), want) {
		t.Errorf("record.when DESC = %v, want %v", ids(byWhenDesc), want)
	}

	ignored, err := db.QueryRecords(ctx, RecordQuery{Viewer: all, SortProperty: "record.notes", SortOrder: "DESC"}, 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if !equalIDs(ids(ignored), r) {
		t.Errorf("ignored sort = %v, want default id order %v", ids(ignored), r)
	}

	page, err := db.QueryRecords(ctx, RecordQuery{Viewer: all}, 2, 2)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if want := []int64{r[2], r[3]}; !equalIDs(ids(page), want) {
		t.Errorf("page 2 = %v, want %v", ids(page), want)
	}

	surveyID := f.frogs
	frogs, err := db.QueryRecords(ctx, RecordQuery{Viewer: all, SurveyID: &surveyID}, 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if want := []int64{r[2], r[3]}; !equalIDs(ids(frogs), want) {
		t.Errorf("survey filter = %v, want %v", ids(frogs), want)
	}
}

func TestRecordByID(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	rec, err := db.RecordByID(ctx, f.records[0])
	if err != nil {
		t.Fatalf("RecordByID() error = %v", err)
	}
	if rec.Species == nil || rec.Species.ScientificName != "Gymnorhina tibicen" {
		t.Errorf("joined species = %+v", rec.Species)
	}
	if rec.Location == nil || rec.Location.Name != "Kings Park" {
		t.Errorf("joined location = %+v", rec.Location)
	}
	if rec.Number == nil || *rec.Number != 2 {
		t.Errorf("Number = %v, want 2", rec.Number)
	}
	if !rec.HasPoint() {
		t.Error("record should carry coordinates")
	}

	if _, err := db.RecordByID(ctx, 999); !isNotFound(err) {
		t.Errorf("RecordByID(999) error = %v, want ErrNotFound", err)
	}
}
