// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package facet

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// MineOption selects the viewer's own records in the user facet.
const MineOption = "mine"

// UserFacet selects records by owner.
type UserFacet struct {
	base
	ids []int64
}

const userLabel = "COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.login)"

// NewUserFacet parses user_option. "mine" resolves to the viewer and is
// dropped for anonymous requests.
func NewUserFacet(params url.Values, viewer database.Viewer) *UserFacet {
	f := &UserFacet{base: base{name: "user", displayName: "User"}}
	raw := values(params, f.InputName())
	for i, v := range raw {
		if strings.EqualFold(v, MineOption) {
			if viewer.UserID != nil {
				raw[i] = strconv.FormatInt(*viewer.UserID, 10)
			} else {
				raw[i] = ""
			}
		}
	}
	f.ids = int64Values(raw)
	f.selected = formatInts(f.ids)
	return f
}

// ForceViewer restricts the facet to the viewer's records, replacing any
// other selection. My Sightings pages use this.
func (f *UserFacet) ForceViewer(viewer database.Viewer) {
	if viewer.UserID == nil {
		return
	}
	f.ids = []int64{*viewer.UserID}
	f.selected = formatInts(f.ids)
}

func (f *UserFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	return sq.Eq{"r.user_id": f.ids}
}

// Options lists every owner for see-all viewers and only the viewer's own
// records otherwise.
func (f *UserFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	g := database.Grouping{Key: "r.user_id", Label: userLabel, Viewer: viewer}
	if !viewer.SeeAll {
		if viewer.UserID == nil {
			return []models.FacetOption{}, nil
		}
		g.Where = sq.Eq{"r.user_id": *viewer.UserID}
	}
	counts, err := src.GroupCounts(ctx, g)
	if err != nil {
		return nil, err
	}
	return f.toOptions(counts), nil
}

// timeFacet filters on a date part of the record date.
type timeFacet struct {
	base
	part  string
	parts []int64
	valid func(int64) bool
	label func(int64) string
	desc  bool
}

func newTimeFacet(params url.Values, name, displayName, part string, valid func(int64) bool, label func(int64) string, desc bool) *timeFacet {
	f := &timeFacet{base: base{name: name, displayName: displayName}, part: part, valid: valid, label: label, desc: desc}
	for _, n := range int64Values(values(params, f.InputName())) {
		if valid(n) {
			f.parts = append(f.parts, n)
		}
	}
	f.selected = formatInts(f.parts)
	return f
}

func (f *timeFacet) expr() string {
	return f.part + "(r.when_date)"
}

func (f *timeFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	return sq.Eq{f.expr(): f.parts}
}

func (f *timeFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	counts, err := src.GroupCounts(ctx, database.Grouping{Key: f.expr(), Label: f.expr(), Viewer: viewer})
	if err != nil {
		return nil, err
	}
	opts := f.toOptions(counts)
	for i := range opts {
		if n, err := strconv.ParseInt(opts[i].Value, 10, 64); err == nil {
			opts[i].Label = f.label(n)
		}
	}
	sortByNumericKey(opts, f.desc)
	return opts, nil
}

// NewMonthFacet parses month_option (1 to 12).
func NewMonthFacet(params url.Values) Facet {
	return newTimeFacet(params, "month", "Month", "month",
		func(n int64) bool { return n >= 1 && n <= 12 },
		func(n int64) string { return time.Month(n).String() },
		false)
}

// NewYearFacet parses year_option.
func NewYearFacet(params url.Values) Facet {
	return newTimeFacet(params, "year", "Year", "year",
		func(n int64) bool { return n > 0 && n < 10000 },
		func(n int64) string { return strconv.FormatInt(n, 10) },
		true)
}

var attributeJoin = database.Join{
	Alias:  "avf",
	Clause: "JOIN attribute_values avf ON avf.record_id = r.id JOIN attributes af ON af.id = avf.attribute_id",
}

// attributePair is one name:value selection.
type attributePair struct {
	name, value string
}

// AttributeFacet selects records carrying an attribute value, given as
// "attributeName:value". Only attributes with a fixed option list are offered.
type AttributeFacet struct {
	base
	pairs []attributePair
}

// NewAttributeFacet parses attribute_option.
func NewAttributeFacet(params url.Values) *AttributeFacet {
	f := &AttributeFacet{base: base{name: "attribute", displayName: "Attribute"}}
	seen := make(map[string]bool)
	for _, v := range values(params, f.InputName()) {
		name, value, ok := strings.Cut(v, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			continue
		}
		key := name + ":" + value
		if seen[key] {
			continue
		}
		seen[key] = true
		f.pairs = append(f.pairs, attributePair{name: name, value: value})
		f.selected = append(f.selected, key)
	}
	return f
}

func (f *AttributeFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	or := sq.Or{}
	for _, p := range f.pairs {
		or = append(or, sq.And{sq.Eq{"af.name": p.name}, sq.Eq{"avf.string_value": p.value}})
	}
	return or
}

func (f *AttributeFacet) Joins() []database.Join {
	if !f.Active() {
		return nil
	}
	return []database.Join{attributeJoin}
}

func (f *AttributeFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	key := "af.name || ':' || avf.string_value"
	counts, err := src.GroupCounts(ctx, database.Grouping{
		Key: key, Label: key, Viewer: viewer,
		Joins: []database.Join{attributeJoin},
		Where: sq.And{
			sq.NotEq{"avf.string_value": ""},
			sq.Expr("af.id IN (SELECT attribute_id FROM attribute_options)"),
		},
	})
	if err != nil {
		return nil, err
	}
	return f.toOptions(counts), nil
}

// Visibility options
const (
	VisibilityHeld   = "held"
	VisibilityPublic = "public"
)

// VisibilityFacet selects held (moderated) or public records.
type VisibilityFacet struct {
	base
}

// NewVisibilityFacet parses visibility_option.
func NewVisibilityFacet(params url.Values) *VisibilityFacet {
	f := &VisibilityFacet{base: base{name: "visibility", displayName: "Visibility"}}
	seen := make(map[string]bool)
	for _, v := range values(params, f.InputName()) {
		v = strings.ToLower(v)
		if (v == VisibilityHeld || v == VisibilityPublic) && !seen[v] {
			seen[v] = true
			f.selected = append(f.selected, v)
		}
	}
	return f
}

func visibilityPredicate(option string) sq.Sqlizer {
	if option == VisibilityHeld {
		return sq.Eq{"r.held": true}
	}
	return sq.Eq{"r.visibility": models.VisibilityPublic}
}

func (f *VisibilityFacet) Predicate() sq.Sqlizer {
	if !f.Active() {
		return nil
	}
	or := sq.Or{}
	for _, s := range f.selected {
		or = append(or, visibilityPredicate(s))
	}
	return or
}

func (f *VisibilityFacet) Options(ctx context.Context, src OptionSource, viewer database.Viewer) ([]models.FacetOption, error) {
	var counts []database.GroupCount
	for _, option := range []struct{ key, label string }{{VisibilityPublic, "Public"}, {VisibilityHeld, "Held"}} {
		c, err := src.GroupCounts(ctx, database.Grouping{
			Key:    "'" + option.key + "'",
			Label:  "'" + option.label + "'",
			Viewer: viewer,
			Where:  visibilityPredicate(option.key),
		})
		if err != nil {
			return nil, err
		}
		counts = append(counts, c...)
	}
	return f.toOptions(counts), nil
}
