// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package facet turns review request parameters into record filters.
//
// Each facet reads its selections from the <name>_option parameter. Values may
// repeat and may be comma separated. Options that do not parse are dropped
// without error, and a facet with no surviving option is inactive and adds
// nothing to the query. Multiple options within one facet are ORed; facets
// are ANDed together by the record query.
package facet

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// OptionSuffix is appended to a facet name to form its request parameter.
const OptionSuffix = "_option"

// OptionSource counts records per facet option.
type OptionSource interface {
	GroupCounts(ctx context.Context, g database.Grouping) ([]database.GroupCount, error)
}

// Facet is a named, user-togglable filter criterion.
type Facet interface {
	database.Filter

	Name() string
	DisplayName() string
	InputName() string
	// Active reports whether at least one option parsed.
	Active() bool
	// Selected returns the parsed option values as strings.
	Selected() []string
	// Options lists the selectable values with visible record counts.
	Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error)
}

// values returns every non-empty, comma-split value of a parameter.
func values(params url.Values, key string) []string {
	var out []string
	for _, raw := range params[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// int64Values parses values as ids, dropping anything that is not an integer.
func int64Values(vals []string) []int64 {
	var out []int64
	seen := make(map[int64]bool)
	for _, v := range vals {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func formatInts(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

// base carries the pieces every facet shares.
type base struct {
	name        string
	displayName string
	selected    []string
}

func (b *base) Name() string        { return b.name }
func (b *base) DisplayName() string { return b.displayName }
func (b *base) InputName() string   { return b.name + OptionSuffix }
func (b *base) Active() bool        { return len(b.selected) > 0 }
func (b *base) Selected() []string  { return b.selected }
func (b *base) Joins() []database.Join {
	return nil
}

// toOptions converts grouped counts to display options, marking selections.
func (b *base) toOptions(counts []database.GroupCount) []models.FacetOption {
	selected := make(map[string]bool, len(b.selected))
	for _, s := range b.selected {
		selected[s] = true
	}
	out := make([]models.FacetOption, 0, len(counts))
	for _, c := range counts {
		label := c.Label
		if label == "" {
			label = c.Key
		}
		out = append(out, models.FacetOption{Value: c.Key, Label: label, Count: c.Count, Selected: selected[c.Key]})
	}
	return out
}

// idFacet filters a single id column (survey, location, owner, taxon group).
type idFacet struct {
	base
	column string
	label  string
	joins  []database.Join
	ids    []int64
}

func newIDFacet(params url.Values, name, displayName, column, label string, joins ...database.Join) *idFacet {
	f := &idFacet{base: base{name: name, displayName: displayName}, column: column, label: label, joins: joins}
	f.ids = int64Values(values(params, f.InputName()))
	f.selected = formatInts(f.ids)
	return f
}

func (f *idFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	return sq.Eq{f.column: f.ids}
}

func (f *idFacet) Joins() []database.Join {
	if !f.Active() {
		return nil
	}
	return f.joins
}

// IDs returns the parsed ids.
func (f *idFacet) IDs() []int64 {
	return f.ids
}

func (f *idFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	counts, err := src.GroupCounts(ctx, database.Grouping{Key: f.column, Label: f.label, Joins: f.joins, Viewer: viewer})
	if err != nil {
		return nil, err
	}
	return f.toOptions(counts), nil
}

// SurveyFacet selects records by survey.
type SurveyFacet struct{ *idFacet }

// NewSurveyFacet parses survey_option.
func NewSurveyFacet(params url.Values) *SurveyFacet {
	return &SurveyFacet{newIDFacet(params, "survey", "Survey", "r.survey_id", "sv.name")}
}

// SelectedSurveys returns the chosen survey ids.
func (f *SurveyFacet) SelectedSurveys() []int64 {
	return f.IDs()
}

// NewLocationFacet parses location_option.
func NewLocationFacet(params url.Values) Facet {
	return newIDFacet(params, "location", "Location", "r.location_id", "l.name")
}

var taxonGroupJoin = database.Join{Alias: "tg", Clause: "LEFT JOIN taxon_groups tg ON tg.id = s.taxon_group_id"}

// NewTaxonGroupFacet parses taxonGroup_option.
func NewTaxonGroupFacet(params url.Values) Facet {
	return newIDFacet(params, "taxonGroup", "Taxon Group", "tg.id", "tg.name", taxonGroupJoin)
}

// stringFacet filters a text column by exact value.
type stringFacet struct {
	base
	column string
}

// NewCensusMethodFacet parses censusMethod_option (census method types).
func NewCensusMethodFacet(params url.Values) Facet {
	f := &stringFacet{base: base{name: "censusMethod", displayName: "Census Method"}, column: "cm.type"}
	seen := make(map[string]bool)
	for _, v := range values(params, f.InputName()) {
		if !seen[v] {
			seen[v] = true
			f.selected = append(f.selected, v)
		}
	}
	return f
}

func (f *stringFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	return sq.Eq{f.column: f.selected}
}

func (f *stringFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	counts, err := src.GroupCounts(ctx, database.Grouping{
		Key: f.column, Label: f.column, Viewer: viewer,
		Where: sq.NotEq{f.column: ""},
	})
	if err != nil {
		return nil, err
	}
	return f.toOptions(counts), nil
}

// sortByNumericKey orders options by their integer value.
func sortByNumericKey(opts []models.FacetOption, descending bool) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, _ := strconv.Atoi(opts[i].Value)
		b, _ := strconv.Atoi(opts[j].Value)
		if descending {
			return a > b
		}
		return a < b
	})
}
