// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/testinfra"
)

func newTestService(t *testing.T) (*Service, *database.DB, testinfra.Fixture) {
	t.Helper()
	db := testinfra.NewDB(t)
	fx := testinfra.Seed(t, db)
	svc := NewService(db, facet.NewRegistry(time.Minute), config.APIConfig{
		DefaultPageSize:  20,
		MaxPageSize:      500,
		ResultsBatchSize: 2,
	})
	return svc, db, fx
}

func idList(ids ...int64) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%d;", id)
	}
	return b.String()
}

func TestReviewView(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := NewReviewRequest(url.Values{
		ParamResultsPerPage: {"2"},
		ParamPageNumber:     {"9"},
		ParamRecordID:       {"4"},
	}, 20)
	view, err := svc.Review(ctx, req, Scope{Viewer: database.Anonymous})
	require.NoError(t, err)

	// anonymous viewers see public, unheld records only: 1, 4 and 5
	assert.Equal(t, int64(3), view.RecordCount)
	assert.Equal(t, int64(2), view.PageCount)
	assert.Equal(t, int64(2), view.PageNumber)
	assert.Equal(t, 2, view.ResultsPerPage)
	assert.Equal(t, DefaultSortBy, view.SortBy)
	assert.Equal(t, DefaultSortOrder, view.SortOrder)
	assert.Equal(t, models.ViewTable, view.ViewType)
	assert.Equal(t, "4", view.LatestRecordID)
	assert.Len(t, view.FacetList, 9)
	require.Len(t, view.Reports, 1)
	assert.Equal(t, models.ReportSpeciesSummary, view.Reports[0].Kind)
}

func TestReviewViewType(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Review(ctx, NewReviewRequest(url.Values{ParamViewType: {"download"}}, 20), Scope{})
	require.NoError(t, err)
	assert.Equal(t, models.ViewDownload, view.ViewType)

	require.NoError(t, db.SetPreference(ctx, models.PreferenceDefaultMapView, "true"))
	view, err = svc.Review(ctx, NewReviewRequest(url.Values{ParamViewType: {"bogus"}}, 20), Scope{})
	require.NoError(t, err)
	assert.Equal(t, models.ViewMap, view.ViewType)
}

func TestReviewMySightings(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	// the user_option for bob is replaced by the viewer
	req := NewReviewRequest(url.Values{"user_option": {fmt.Sprint(fx.Bob)}}, 20)
	view, err := svc.Review(ctx, req, Scope{Viewer: testinfra.As(fx.Alice), Mine: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.RecordCount)

	view, err = svc.Review(ctx, NewReviewRequest(nil, 20), Scope{Viewer: testinfra.As(fx.Alice)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), view.RecordCount)
}

func TestReviewSearchIsCaseInsensitive(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	for _, text := range []string{"LAKE", "lake", "Lak"} {
		req := NewReviewRequest(url.Values{ParamSearchText: {text}}, 20)
		_, q := svc.Query(req, Scope{Viewer: testinfra.SeeAll})

		var sink bufferSink
		stats, err := svc.Stream(ctx, q, 0, 0, FormatJSON, &sink)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Records, text)
		assert.Equal(t, idList(fx.Records[0]), sink.out.String(), text)
	}
}

func TestStreamOrderingAndPaging(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	_, q := svc.Query(NewReviewRequest(nil, 20), Scope{Viewer: testinfra.SeeAll})

	var all bufferSink
	stats, err := svc.Stream(ctx, q, 0, 0, FormatJSON, &all)
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 5, Batches: 3, Clears: 3}, stats)
	assert.Equal(t, idList(fx.Records...), all.out.String())

	var page bufferSink
	p := Paginate(5, 2, 2)
	_, err = svc.Stream(ctx, q, p.Limit, p.Offset, FormatJSON, &page)
	require.NoError(t, err)
	assert.Equal(t, idList(fx.Records[2], fx.Records[3]), page.out.String())

	// a sort outside the allow-list leaves the default order
	_, ignored := svc.Query(NewReviewRequest(url.Values{ParamSortBy: {"record.notes"}, ParamSortOrder: {"ASC"}}, 20),
		Scope{Viewer: testinfra.SeeAll})
	var unsorted bufferSink
	_, err = svc.Stream(ctx, ignored, 0, 0, FormatJSON, &unsorted)
	require.NoError(t, err)
	assert.Equal(t, all.out.String(), unsorted.out.String())

	// record.when DESC: 2 (May), 5 (Mar 5), 1 (Mar 1), 4 (Jan), 3 (Nov 2023)
	_, sorted := svc.Query(NewReviewRequest(url.Values{ParamSortBy: {"record.when"}, ParamSortOrder: {"desc"}}, 20),
		Scope{Viewer: testinfra.SeeAll})
	var byDate bufferSink
	_, err = svc.Stream(ctx, sorted, 0, 0, FormatJSON, &byDate)
	require.NoError(t, err)
	assert.Equal(t, idList(fx.Records[1], fx.Records[4], fx.Records[0], fx.Records[3], fx.Records[2]), byDate.out.String())
}

func TestFixLocationParams(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	t.Run("explicit locations", func(t *testing.T) {
		req := NewReviewRequest(url.Values{ParamLocations: {"3,4"}}, 20)
		require.NoError(t, svc.FixLocationParams(ctx, req, testinfra.SeeAll))
		assert.Equal(t, []string{"3", "4"}, req.Params[locationOption])
		assert.False(t, req.Params.Has(ParamLocations))
	})

	t.Run("existing selection wins", func(t *testing.T) {
		req := NewReviewRequest(url.Values{ParamLocations: {"3"}, locationOption: {"9"}}, 20)
		require.NoError(t, svc.FixLocationParams(ctx, req, testinfra.SeeAll))
		assert.Equal(t, []string{"9"}, req.Params[locationOption])
		assert.True(t, req.Params.Has(ParamLocations))
	})

	t.Run("area selects contained locations", func(t *testing.T) {
		area := "POLYGON((115.82 -31.94, 115.85 -31.94, 115.85 -31.92, 115.82 -31.92, 115.82 -31.94))"
		req := NewReviewRequest(url.Values{
			ParamSourcePage:   {"map"},
			ParamLocationArea: {area},
			"survey_option":   {fmt.Sprint(fx.Frogs)},
		}, 20)

		view, err := svc.Review(ctx, req, Scope{Viewer: testinfra.SeeAll})
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprint(fx.Lake)}, req.Params[locationOption])
		assert.False(t, req.Params.Has(ParamLocationArea))
		assert.False(t, req.Params.Has("survey_option"))
		// records 3 and 4 sit at the lake
		assert.Equal(t, int64(2), view.RecordCount)
	})

	t.Run("unparseable area is ignored", func(t *testing.T) {
		req := NewReviewRequest(url.Values{ParamLocationArea: {"POLYGON((oops"}}, 20)
		require.NoError(t, svc.FixLocationParams(ctx, req, testinfra.SeeAll))
		assert.False(t, req.Params.Has(locationOption))
	})
}

func TestDownloadSurveys(t *testing.T) {
	svc, _, fx := newTestService(t)
	ctx := context.Background()

	set := svc.Facets().Build(url.Values{"survey_option": {fmt.Sprint(fx.Frogs)}}, database.Anonymous)
	surveys, err := svc.DownloadSurveys(ctx, set, database.Anonymous)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, "Frog Watch", surveys[0].Name)

	// without a selection anonymous viewers get the public surveys
	set = svc.Facets().Build(url.Values{}, database.Anonymous)
	surveys, err = svc.DownloadSurveys(ctx, set, database.Anonymous)
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	assert.Equal(t, "Backyard Birds", surveys[0].Name)

	surveys, err = svc.DownloadSurveys(ctx, set, testinfra.SeeAll)
	require.NoError(t, err)
	assert.Len(t, surveys, 2)
}
