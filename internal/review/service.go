// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Scope selects between Advanced Review and My Sightings.
type Scope struct {
	Viewer database.Viewer
	// Mine forces the user facet to the viewer.
	Mine bool
}

// Service runs review requests against the record store.
type Service struct {
	db     *database.DB
	facets *facet.Registry
	api    config.APIConfig
}

// NewService creates a review service.
func NewService(db *database.DB, facets *facet.Registry, api config.APIConfig) *Service {
	return &Service{db: db, facets: facets, api: api}
}

// Facets returns the facet registry.
func (s *Service) Facets() *facet.Registry {
	return s.facets
}

// BatchSize returns the configured export batch size.
func (s *Service) BatchSize() int {
	return s.api.ResultsBatchSize
}

// Query builds the facet set and record query for a request.
func (s *Service) Query(req *ReviewRequest, scope Scope) (*facet.Set, database.RecordQuery) {
	set := s.facets.Build(req.Params, scope.Viewer)
	if scope.Mine {
		set.User.ForceViewer(scope.Viewer)
	}
	return set, database.RecordQuery{
		Filters:      set.Filters(),
		SurveyID:     req.SurveyID,
		SearchText:   req.SearchText,
		SortProperty: req.SortBy,
		SortOrder:    req.SortOrder,
		Viewer:       scope.Viewer,
	}
}

// Review builds the review page model: facets with option counts, the record
// count and the clamped paging state.
func (s *Service) Review(ctx context.Context, req *ReviewRequest, scope Scope) (*models.ReviewView, error) {
	if _, ok := req.Params[ParamSourcePage]; ok {
		if err := s.FixLocationParams(ctx, req, scope.Viewer); err != nil {
			return nil, err
		}
	}

	set, q := s.Query(req, scope)
	count, err := s.db.CountRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	page := Paginate(count, req.ResultsPerPage, req.PageNumber)

	facetViews, err := s.facets.Views(ctx, set, s.db, scope.Viewer)
	if err != nil {
		return nil, err
	}
	reports, err := s.db.ActiveReports(ctx)
	if err != nil {
		return nil, err
	}
	viewType, err := s.viewType(ctx, req.Params.Get(ParamViewType))
	if err != nil {
		return nil, err
	}

	sortBy, sortOrder := req.DisplaySort()
	return &models.ReviewView{
		FacetList:      facetViews,
		SurveyID:       req.SurveyID,
		SortBy:         sortBy,
		SortOrder:      sortOrder,
		SearchText:     req.SearchText,
		RecordCount:    count,
		ResultsPerPage: req.ResultsPerPage,
		PageCount:      page.PageCount,
		PageNumber:     page.PageNumber,
		ViewType:       viewType,
		Locations:      req.Params.Get(ParamLocations),
		LatestRecordID: req.Params.Get(ParamRecordID),
		Reports:        reports,
	}, nil
}

// viewType honours an explicit viewType parameter, otherwise the
// advancedReview.defaultToMapView preference picks map or table.
func (s *Service) viewType(ctx context.Context, param string) (string, error) {
	switch param {
	case models.ViewTable, models.ViewMap, models.ViewDownload:
		return param, nil
	}
	pref, err := s.db.Preference(ctx, models.PreferenceDefaultMapView)
	if errors.Is(err, database.ErrNotFound) {
		return models.ViewTable, nil
	}
	if err != nil {
		return "", err
	}
	if useMap, _ := strconv.ParseBool(strings.TrimSpace(pref)); useMap {
		return models.ViewMap, nil
	}
	return models.ViewTable, nil
}

// Stream runs q through a Streamer into sink. limit and offset restrict the
// result to one page; zero means everything.
func (s *Service) Stream(ctx context.Context, q database.RecordQuery, limit, offset uint64, format string, sink Sink) (Stats, error) {
	cur, err := s.db.OpenPageCursor(ctx, q, limit, offset)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := cur.Close(); err != nil {
			logging.Warn().Err(err).Str("format", format).Msg("Failed to close record cursor")
		}
	}()

	stats, err := Streamer{BatchSize: s.api.ResultsBatchSize, Format: format}.Stream(ctx, cur, s.db.NewSession(), sink)
	if err != nil {
		return stats, fmt.Errorf("stream %s export: %w", format, err)
	}
	logging.Ctx(ctx).Debug().
		Str("format", format).
		Int("records", stats.Records).
		Int("batches", stats.Batches).
		Msg("Export streamed")
	return stats, nil
}

// DownloadSurveys returns the surveys a download covers: the selected survey
// facet options, or every active survey visible to the viewer.
func (s *Service) DownloadSurveys(ctx context.Context, set *facet.Set, viewer database.Viewer) ([]*models.Survey, error) {
	if ids := set.Survey.SelectedSurveys(); len(ids) > 0 {
		byID, err := s.db.SurveysByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		surveys := make([]*models.Survey, 0, len(ids))
		for _, id := range ids {
			if sv, ok := byID[id]; ok {
				surveys = append(surveys, sv)
			}
		}
		if len(surveys) > 0 {
			return surveys, nil
		}
	}
	return s.db.ActiveSurveysForUser(ctx, viewer)
}
