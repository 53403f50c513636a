// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package facet

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/database"
)

// fakeSource returns canned counts keyed by grouping Key and records calls.
type fakeSource struct {
	counts map[string][]database.GroupCount
	calls  []database.Grouping
	err    error
}

func (f *fakeSource) GroupCounts(_ context.Context, g database.Grouping) ([]database.GroupCount, error) {
	f.calls = append(f.calls, g)
	if f.err != nil {
		return nil, f.err
	}
	return f.counts[g.Key], nil
}

func toSQL(t *testing.T, f Facet) (string, []interface{}) {
	t.Helper()
	p := f.Predicate()
	if p == nil {
		return "", nil
	}
	sql, args, err := p.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestValuesParsing(t *testing.T) {
	t.Parallel()

	params := url.Values{"survey_option": {"1,2", " 3 ", "x", "", "2"}}
	f := NewSurveyFacet(params)

	assert.True(t, f.Active())
	assert.Equal(t, []int64{1, 2, 3}, f.SelectedSurveys())
	assert.Equal(t, []string{"1", "2", "3"}, f.Selected())

	sql, args := toSQL(t, f)
	assert.Equal(t, "r.survey_id IN (?,?,?)", sql)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, args)
}

func TestInactiveFacetsContributeNothing(t *testing.T) {
	t.Parallel()

	params := url.Values{
		"survey_option":       {"abc"},
		"month_option":        {"13", "0"},
		"year_option":         {"-4"},
		"attribute_option":    {"no-colon", ":value", "name:"},
		"visibility_option":   {"secret"},
		"taxonGroup_option":   {""},
		"censusMethod_option": {" , "},
		"user_option":         {MineOption},
	}
	set := NewRegistry(time.Minute).Build(params, database.Anonymous)

	assert.False(t, set.Active())
	assert.Empty(t, set.Filters())
	for _, f := range set.Facets() {
		assert.Nil(t, f.Predicate(), f.Name())
		assert.Empty(t, f.Joins(), f.Name())
	}
}

func TestFacetPredicates(t *testing.T) {
	t.Parallel()

	viewerID := int64(42)
	viewer := database.Viewer{UserID: &viewerID}

	tests := []struct {
		name     string
		facet    Facet
		wantSQL  string
		wantArgs []interface{}
		wantJoin string
	}{
		{
			name:     "user mine resolves to viewer",
			facet:    NewUserFacet(url.Values{"user_option": {"mine", "7"}}, viewer),
			wantSQL:  "r.user_id IN (?,?)",
			wantArgs: []interface{}{int64(42), int64(7)},
		},
		{
			name:     "location",
			facet:    NewLocationFacet(url.Values{"location_option": {"5"}}),
			wantSQL:  "r.location_id IN (?)",
			wantArgs: []interface{}{int64(5)},
		},
		{
			name:     "taxon group joins taxon_groups",
			facet:    NewTaxonGroupFacet(url.Values{"taxonGroup_option": {"3"}}),
			wantSQL:  "tg.id IN (?)",
			wantArgs: []interface{}{int64(3)},
			wantJoin: "tg",
		},
		{
			name:     "census method types",
			facet:    NewCensusMethodFacet(url.Values{"censusMethod_option": {"Standard,Transect", "Standard"}}),
			wantSQL:  "cm.type IN (?,?)",
			wantArgs: []interface{}{"Standard", "Transect"},
		},
		{
			name:     "month",
			facet:    NewMonthFacet(url.Values{"month_option": {"3", "12"}}),
			wantSQL:  "month(r.when_date) IN (?,?)",
			wantArgs: []interface{}{int64(3), int64(12)},
		},
		{
			name:     "year",
			facet:    NewYearFacet(url.Values{"year_option": {"2024"}}),
			wantSQL:  "year(r.when_date) IN (?)",
			wantArgs: []interface{}{int64(2024)},
		},
		{
			name:     "attribute pairs",
			facet:    NewAttributeFacet(url.Values{"attribute_option": {"Weather:Sunny", "Habitat: Wetland"}}),
			wantSQL:  "((af.name = ? AND avf.string_value = ?) OR (af.name = ? AND avf.string_value = ?))",
			wantArgs: []interface{}{"Weather", "Sunny", "Habitat", "Wetland"},
			wantJoin: "avf",
		},
		{
			name:     "visibility",
			facet:    NewVisibilityFacet(url.Values{"visibility_option": {"HELD", "public"}}),
			wantSQL:  "(r.held = ? OR r.visibility = ?)",
			wantArgs: []interface{}{true, "PUBLIC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.True(t, tt.facet.Active())
			sql, args := toSQL(t, tt.facet)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)

			joins := tt.facet.Joins()
			if tt.wantJoin == "" {
				assert.Empty(t, joins)
			} else {
				require.Len(t, joins, 1)
				assert.Equal(t, tt.wantJoin, joins[0].Alias)
			}
		})
	}
}

func TestUserFacetForceViewer(t *testing.T) {
	t.Parallel()

	id := int64(9)
	f := NewUserFacet(url.Values{"user_option": {"1", "2"}}, database.Anonymous)
	f.ForceViewer(database.Viewer{UserID: &id})
	assert.Equal(t, []string{"9"}, f.Selected())

	anon := NewUserFacet(url.Values{}, database.Anonymous)
	anon.ForceViewer(database.Anonymous)
	assert.False(t, anon.Active())
}

func TestUserFacetOptionsScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := &fakeSource{}
	f := NewUserFacet(url.Values{}, database.Anonymous)

	opts, err := f.Options(ctx, src, database.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, opts)
	assert.Empty(t, src.calls, "anonymous viewers never list users")

	id := int64(3)
	_, err = f.Options(ctx, src, database.Viewer{UserID: &id})
	require.NoError(t, err)
	require.Len(t, src.calls, 1)
	sql, _, err := src.calls[0].Where.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "r.user_id = ?", sql)

	_, err = f.Options(ctx, src, database.Viewer{SeeAll: true})
	require.NoError(t, err)
	assert.Nil(t, src.calls[1].Where)
}

func TestMonthOptionsLabelledAndOrdered(t *testing.T) {
	t.Parallel()

	src := &fakeSource{counts: map[string][]database.GroupCount{
		"month(r.when_date)": {{Key: "11", Count: 1}, {Key: "3", Count: 4}},
	}}
	f := NewMonthFacet(url.Values{"month_option": {"3"}})

	opts, err := f.Options(context.Background(), src, database.Anonymous)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "March", opts[0].Label)
	assert.True(t, opts[0].Selected)
	assert.Equal(t, "November", opts[1].Label)
	assert.False(t, opts[1].Selected)
}

func TestRegistryViewsCacheAndInvalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := &fakeSource{counts: map[string][]database.GroupCount{
		"r.survey_id": {{Key: "1", Label: "Backyard Birds", Count: 3}, {Key: "2", Label: "Frog Watch", Count: 2}},
	}}
	reg := NewRegistry(time.Minute)

	set := reg.Build(url.Values{"survey_option": {"2"}}, database.Anonymous)
	views, err := reg.Views(ctx, set, src, database.Anonymous)
	require.NoError(t, err)
	require.Len(t, views, 9)
	firstCalls := len(src.calls)

	survey := views[1]
	assert.Equal(t, "survey", survey.Name)
	assert.Equal(t, "survey_option", survey.InputName)
	assert.True(t, survey.Active)
	require.Len(t, survey.Options, 2)
	assert.False(t, survey.Options[0].Selected)
	assert.True(t, survey.Options[1].Selected)

	// second request with a different selection hits the cache
	other := reg.Build(url.Values{"survey_option": {"1"}}, database.Anonymous)
	views, err = reg.Views(ctx, other, src, database.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, len(src.calls))
	assert.True(t, views[1].Options[0].Selected)
	assert.False(t, views[1].Options[1].Selected)

	reg.Invalidate()
	_, err = reg.Views(ctx, other, src, database.Anonymous)
	require.NoError(t, err)
	assert.Greater(t, len(src.calls), firstCalls)
}

func TestRegistryViewsError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errors.New("db down")}
	reg := NewRegistry(time.Minute)
	set := reg.Build(url.Values{}, database.Viewer{SeeAll: true})

	_, err := reg.Views(context.Background(), set, src, database.Viewer{SeeAll: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, reg.Cache().Len())
}

func TestHasFacetParams(t *testing.T) {
	t.Parallel()

	set := NewRegistry(time.Minute).Build(url.Values{}, database.Anonymous)
	assert.False(t, HasFacetParams(url.Values{"surveyId": {"1"}}, set))
	assert.True(t, HasFacetParams(url.Values{"year_option": {""}}, set))
	assert.Contains(t, set.InputNames(), "taxonGroup_option")
}
