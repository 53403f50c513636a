// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

import (
	"context"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/geo"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// locationOption is the location facet's input name.
const locationOption = "location" + facet.OptionSuffix

// FixLocationParams turns the map page's location selection into location
// facet options. Pages linking into the review page send either explicit
// location ids (locations=1,2) or a drawn area (locationArea=<WKT>).
//
// An area is resolved to the ids of the locations inside it that carry
// records matching the other facets; those facet parameters and the area
// are then removed. The ids become location_option unless the request
// already has one.
func (s *Service) FixLocationParams(ctx context.Context, req *ReviewRequest, viewer database.Viewer) error {
	params := req.Params
	locations := strings.TrimSpace(params.Get(ParamLocations))
	if locations == "" {
		ids, err := s.locationsInArea(ctx, req, viewer)
		if err != nil {
			return err
		}
		locations = ids
		params.Del(ParamLocationArea)
	}
	if locations != "" && !params.Has(locationOption) {
		params[locationOption] = strings.Split(locations, ",")
		params.Del(ParamLocations)
	}
	return nil
}

// locationsInArea returns the comma-joined ids of matching locations inside
// the locationArea polygon. A missing or unparseable area selects nothing.
func (s *Service) locationsInArea(ctx context.Context, req *ReviewRequest, viewer database.Viewer) (string, error) {
	params := req.Params
	raw := strings.TrimSpace(params.Get(ParamLocationArea))
	if raw == "" {
		return "", nil
	}
	area, err := geo.Parse(raw)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Ignoring unparseable location area")
		return "", nil
	}

	set := s.facets.Build(params, viewer)
	q := database.RecordQuery{
		Filters:    set.Filters(),
		SurveyID:   req.SurveyID,
		SearchText: req.SearchText,
		Viewer:     viewer,
	}
	for _, name := range set.InputNames() {
		params.Del(name)
	}

	locs, err := s.db.LocationsForRecords(ctx, q)
	if err != nil {
		return "", err
	}
	var ids []string
	for _, l := range locs {
		if p, ok := locationPoint(l); ok && geo.Contains(area, p) {
			ids = append(ids, strconv.FormatInt(l.ID, 10))
		}
	}
	return strings.Join(ids, ","), nil
}

// locationPoint returns the coordinate of a location, falling back to the
// centre of its WKT geometry.
func locationPoint(l *models.Location) (orb.Point, bool) {
	if l.Latitude != nil && l.Longitude != nil {
		return orb.Point{*l.Longitude, *l.Latitude}, true
	}
	if l.WKT == "" {
		return orb.Point{}, false
	}
	g, err := geo.Parse(l.WKT)
	if err != nil {
		return orb.Point{}, false
	}
	return g.Bound().Center(), true
}
