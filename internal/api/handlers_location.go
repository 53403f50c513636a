// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"

	"github.com/gaiaresources/bdrs-review/internal/geo"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Location web service parameters
const (
	ParamID           = "id"
	ParamIDs          = "ids"
	ParamLocationName = "locationName"
	ParamLatitude     = "latitude"
	ParamLongitude    = "longitude"
	ParamIsDefault    = "isDefault"
	ParamWKT          = "wkt"
)

// GetLocationByID returns every property of one location.
//
// @Summary Get a location
// @Tags Location
// @Produce json
// @Param id query int true "Location id"
// @Success 200 {object} models.APIResponse{data=models.Flattened}
// @Failure 404 {object} models.APIResponse
// @Router /webservice/location/getLocationById [get]
func (h *Handler) GetLocationByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	id, present, err := int64Param(params, ParamID)
	switch {
	case !present:
		respondMissing(w, r, ParamID)
		return
	case err != nil:
		respondInvalid(w, r, "id must be a number")
		return
	}

	loc, err := h.db.LocationByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, err, "Location not found")
		return
	}
	respondSuccess(w, loc.Flatten(), start)
}

// GetLocationsByID returns the WKT of the envelope covering every listed
// location. ids is a JSON array, e.g. ids=[1,2].
//
// @Summary Envelope of several locations
// @Tags Location
// @Produce json
// @Param ids query string true "JSON array of location ids"
// @Success 200 {object} models.APIResponse{data=string}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /webservice/location/getLocationsById [get]
func (h *Handler) GetLocationsByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	raw := strings.TrimSpace(r.URL.Query().Get(ParamIDs))
	if raw == "" {
		respondMissing(w, r, ParamIDs)
		return
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		respondInvalid(w, r, "ids must be a JSON array of numbers")
		return
	}

	locs, err := h.db.LocationsByIDs(r.Context(), ids)
	if err != nil {
		respondStoreError(w, r, err, "Location not found")
		return
	}
	geoms := make([]orb.Geometry, 0, len(locs))
	for _, l := range locs {
		g, ok := locationGeometry(l)
		if !ok {
			logging.Ctx(r.Context()).Warn().Int64("location_id", l.ID).Msg("Location has no usable geometry")
			continue
		}
		geoms = append(geoms, g)
	}

	union, err := geo.EnvelopeUnion(geoms)
	if errors.Is(err, geo.ErrEmptyGeometry) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "No locations found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to build envelope", err)
		return
	}
	respondSuccess(w, geo.Format(union), start)
}

func locationGeometry(l *models.Location) (orb.Geometry, bool) {
	if l.WKT != "" {
		if g, err := geo.Parse(l.WKT); err == nil {
			return g, true
		}
	}
	if l.Latitude != nil && l.Longitude != nil {
		return orb.Point{*l.Longitude, *l.Latitude}, true
	}
	return nil, false
}

// BookmarkUserLocation saves a point location for the calling user.
//
// @Summary Bookmark a location
// @Tags Location
// @Produce json
// @Param ident query string true "Registration key"
// @Param latitude query number true "Latitude"
// @Param longitude query number true "Longitude"
// @Param locationName query string false "Defaults to \"lat, lon\""
// @Param isDefault query bool false "Make this the user's default location"
// @Success 200 {object} models.APIResponse{data=models.Flattened}
// @Failure 401 {object} models.APIResponse
// @Router /webservice/location/bookmarkUserLocation [get]
func (h *Handler) BookmarkUserLocation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := IdentityFromContext(r.Context())
	if id.User == nil {
		respondStatus(w, r, http.StatusUnauthorized)
		return
	}

	params := r.URL.Query()
	lat, ok := floatParam(params, ParamLatitude)
	if !ok {
		respondInvalid(w, r, "latitude must be a number")
		return
	}
	lon, ok := floatParam(params, ParamLongitude)
	if !ok {
		respondInvalid(w, r, "longitude must be a number")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondInvalid(w, r, "latitude and longitude must be within range")
		return
	}

	name := strings.TrimSpace(params.Get(ParamLocationName))
	if name == "" {
		name = strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
	}

	loc := &models.Location{
		Name:      name,
		UserID:    &id.User.ID,
		Latitude:  &lat,
		Longitude: &lon,
		WKT:       geo.Format(orb.Point{lon, lat}),
	}
	ctx := r.Context()
	if _, err := h.db.InsertLocation(ctx, loc); err != nil {
		respondStoreError(w, r, err, "Location not found")
		return
	}

	if isDefault, _ := strconv.ParseBool(params.Get(ParamIsDefault)); isDefault {
		if err := h.db.SetUserMetadata(ctx, id.User.ID, models.MetadataDefaultLocation, strconv.FormatInt(loc.ID, 10)); err != nil {
			respondStoreError(w, r, err, "User not found")
			return
		}
	}

	logging.Ctx(ctx).Info().Int64("location_id", loc.ID).Msg("Location bookmarked")
	respondSuccess(w, loc.Flatten(), start)
}

// IsValidWKT reports whether the wkt parameter is a valid geometry.
// Self intersecting polygons are invalid.
//
// @Summary Validate WKT
// @Tags Location
// @Produce json
// @Param wkt query string true "Well known text"
// @Success 200 {object} models.APIResponse{data=models.WKTValidation}
// @Router /webservice/location/isValidWkt [get]
func (h *Handler) IsValidWKT(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	v := geo.Validate(r.URL.Query().Get(ParamWKT))
	respondSuccess(w, models.WKTValidation{IsValid: v.Valid, Message: v.Message}, start)
}
