// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/export"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/review"
	"github.com/gaiaresources/bdrs-review/internal/session"
)

// exportBase names download files and zip entries.
const exportBase = "records"

// reviewRequest parses and validates the shared review parameters.
func (h *Handler) reviewRequest(w http.ResponseWriter, r *http.Request, mine bool) (*review.ReviewRequest, review.Scope, bool) {
	params, err := formParams(r)
	if err != nil {
		respondInvalid(w, r, "Malformed request parameters")
		return nil, review.Scope{}, false
	}
	req, ok := h.parseReviewParams(w, r, params)
	if !ok {
		return nil, review.Scope{}, false
	}
	return req, review.Scope{Viewer: IdentityFromContext(r.Context()).Viewer, Mine: mine}, true
}

// parseReviewParams validates params and clamps the page size.
func (h *Handler) parseReviewParams(w http.ResponseWriter, r *http.Request, params url.Values) (*review.ReviewRequest, bool) {
	req := review.NewReviewRequest(params, h.config.API.DefaultPageSize)
	if verr := req.Validate(); verr != nil {
		respondValidation(w, r, verr)
		return nil, false
	}
	req.ResultsPerPage = min(req.ResultsPerPage, h.config.API.MaxPageSize)
	return req, true
}

// AdvancedReview returns the review page view model.
//
// @Summary Advanced review
// @Description Faceted, paginated record search. Facet options are read from <facet>_option parameters.
// @Tags Review
// @Produce json
// @Param surveyId query int false "Survey filter"
// @Param sortBy query string false "record.when, species.scientificName, species.commonName, location.name, censusMethod.type or record.user"
// @Param sortOrder query string false "ASC or DESC"
// @Param searchText query string false "Free text matched against notes and species names"
// @Param pageNumber query int false "Page, clamped to the page count"
// @Param resultsPerPage query int false "Page size (1-500)"
// @Param viewType query string false "table, map or download"
// @Success 200 {object} models.APIResponse{data=models.ReviewView}
// @Failure 400 {object} models.APIResponse
// @Router /review/sightings/advancedReview [get]
func (h *Handler) AdvancedReview(w http.ResponseWriter, r *http.Request) {
	h.serveReview(w, r, false)
}

// MySightings is AdvancedReview restricted to the viewer's records.
//
// @Summary My sightings
// @Tags Review
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.ReviewView}
// @Failure 401 {object} models.APIResponse
// @Router /review/mySightings [get]
func (h *Handler) MySightings(w http.ResponseWriter, r *http.Request) {
	h.serveReview(w, r, true)
}

func (h *Handler) serveReview(w http.ResponseWriter, r *http.Request, mine bool) {
	start := time.Now()
	req, scope, ok := h.reviewRequest(w, r, mine)
	if !ok {
		return
	}
	view, err := h.review.Review(r.Context(), req, scope)
	if err != nil {
		respondStoreError(w, r, err, "Not found")
		return
	}
	respondSuccess(w, view, start)
}

// AdvancedReviewJSON returns one page of flattened records as a bare JSON array.
//
// @Summary Advanced review records as JSON
// @Tags Review
// @Produce json
// @Success 200 {array} object
// @Router /review/sightings/advancedReviewJSONSightings [get]
func (h *Handler) AdvancedReviewJSON(w http.ResponseWriter, r *http.Request) {
	h.serveJSON(w, r, false)
}

// MySightingsJSON is AdvancedReviewJSON over the viewer's records.
func (h *Handler) MySightingsJSON(w http.ResponseWriter, r *http.Request) {
	h.serveJSON(w, r, true)
}

func (h *Handler) serveJSON(w http.ResponseWriter, r *http.Request, mine bool) {
	req, scope, ok := h.reviewRequest(w, r, mine)
	if !ok {
		return
	}
	ctx := r.Context()
	_, q := h.review.Query(req, scope)
	count, err := h.db.CountRecords(ctx, q)
	if err != nil {
		respondStoreError(w, r, err, "Not found")
		return
	}
	page := review.Paginate(count, req.ResultsPerPage, req.PageNumber)

	streamExport(w, r, "", export.ContentType(review.FormatJSON), func(out io.Writer) error {
		sink := export.NewJSONSink(out)
		if _, err := h.review.Stream(ctx, q, page.Limit, page.Offset, review.FormatJSON, sink); err != nil {
			return err
		}
		return sink.Close()
	})
}

// AdvancedReviewKML renders every matching located record as KML. Without
// facet parameters the map falls back to the parameters stored by
// SetKMLParameters.
//
// @Summary Advanced review records as KML
// @Tags Review
// @Produce application/vnd.google-earth.kml+xml
// @Success 200 {string} string "KML document"
// @Router /review/sightings/advancedReviewKMLSightings [get]
func (h *Handler) AdvancedReviewKML(w http.ResponseWriter, r *http.Request) {
	h.serveKML(w, r, false)
}

// MySightingsKML is AdvancedReviewKML over the viewer's records.
func (h *Handler) MySightingsKML(w http.ResponseWriter, r *http.Request) {
	h.serveKML(w, r, true)
}

func (h *Handler) serveKML(w http.ResponseWriter, r *http.Request, mine bool) {
	req, scope, ok := h.reviewRequest(w, r, mine)
	if !ok {
		return
	}
	ctx := r.Context()

	set := h.review.Facets().Build(req.Params, scope.Viewer)
	if !facet.HasFacetParams(req.Params, set) {
		if stored := h.storedKMLParams(r); stored != nil {
			if req, ok = h.parseReviewParams(w, r, stored); !ok {
				return
			}
		}
	}
	_, q := h.review.Query(req, scope)

	streamExport(w, r, "", export.ContentType(review.FormatKML), func(out io.Writer) error {
		sink, err := export.NewKMLSink(out, export.DefaultKMLTitle)
		if err != nil {
			return err
		}
		if _, err := h.review.Stream(ctx, q, 0, 0, review.FormatKML, sink); err != nil {
			return err
		}
		return sink.Close()
	})
}

func (h *Handler) cookieName() string {
	if h.config.Session.CookieName != "" {
		return h.config.Session.CookieName
	}
	return session.DefaultCookieName
}

func (h *Handler) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(h.cookieName())
	if err != nil || !session.ValidID(c.Value) {
		return "", false
	}
	return c.Value, true
}

func (h *Handler) storedKMLParams(r *http.Request) url.Values {
	id, ok := h.sessionID(r)
	if !ok {
		return nil
	}
	params, err := h.sessions.LoadParams(r.Context(), id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load stored KML parameters")
		}
		return nil
	}
	return params
}

// SetKMLParameters stores the posted parameters for later KML requests
// under the caller's session, creating the session cookie if needed.
//
// @Summary Store KML parameters
// @Tags Review
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /review/sightings/setKMLParameters [post]
func (h *Handler) SetKMLParameters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := formParams(r)
	if err != nil {
		respondInvalid(w, r, "Malformed request parameters")
		return
	}

	id, ok := h.sessionID(r)
	if !ok {
		id = session.NewID()
	}
	if err := h.sessions.SaveParams(r.Context(), id, params); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to store parameters", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.config.Session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondSuccess(w, map[string]int{"parameters": len(params)}, start)
}

// ClearKMLParameters forgets the stored parameters. Clearing an absent
// session succeeds.
//
// @Summary Clear KML parameters
// @Tags Review
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /review/sightings/clearKMLParameters [post]
func (h *Handler) ClearKMLParameters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if id, ok := h.sessionID(r); ok {
		if err := h.sessions.ClearParams(r.Context(), id); err != nil {
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to clear parameters", err)
			return
		}
	}
	respondSuccess(w, map[string]bool{"cleared": true}, start)
}

// AdvancedReviewDownload streams the matching records in each requested
// format; several formats are zipped together.
//
// @Summary Download records
// @Tags Review
// @Produce application/zip
// @Param downloadFormat query []string true "csv, xlsx, kml or json; may repeat" collectionFormat(multi)
// @Success 200 {file} file
// @Failure 400 {object} models.APIResponse
// @Router /review/sightings/advancedReviewDownload [get]
func (h *Handler) AdvancedReviewDownload(w http.ResponseWriter, r *http.Request) {
	h.serveDownload(w, r, false)
}

// MySightingsDownload is AdvancedReviewDownload over the viewer's records.
func (h *Handler) MySightingsDownload(w http.ResponseWriter, r *http.Request) {
	h.serveDownload(w, r, true)
}

func (h *Handler) serveDownload(w http.ResponseWriter, r *http.Request, mine bool) {
	req, scope, ok := h.reviewRequest(w, r, mine)
	if !ok {
		return
	}
	dl := review.NewDownloadRequest(req.Params)
	if len(dl.Formats) == 0 {
		respondMissing(w, r, review.ParamDownloadFormat)
		return
	}
	if verr := dl.Validate(); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx := r.Context()
	set, q := h.review.Query(req, scope)
	surveys, err := h.review.DownloadSurveys(ctx, set, scope.Viewer)
	if err != nil {
		respondStoreError(w, r, err, "Survey not found")
		return
	}
	ids := make([]int64, len(surveys))
	for i, sv := range surveys {
		ids[i] = sv.ID
	}
	attrs, err := h.db.AttributesForSurveys(ctx, ids)
	if err != nil {
		respondStoreError(w, r, err, "Attribute not found")
		return
	}

	opts := export.Options{Title: export.DefaultKMLTitle, Surveys: surveys, Attributes: attrs}
	stream := func(ctx context.Context, format string, sink review.Sink) (review.Stats, error) {
		return h.review.Stream(ctx, q, 0, 0, format, sink)
	}
	d := export.Describe(exportBase, dl.Formats)
	streamExport(w, r, d.Filename, d.ContentType, func(out io.Writer) error {
		return export.Write(ctx, out, exportBase, dl.Formats, opts, stream)
	})
}

// AdvancedReviewReport runs a registered report over the matching records.
// The survey parameter is ignored; use the survey facet instead.
//
// @Summary Run a report
// @Tags Review
// @Produce json
// @Param reportId query int true "Report id"
// @Success 200 {object} export.ReportResult
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /review/sightings/advancedReviewReport [get]
func (h *Handler) AdvancedReviewReport(w http.ResponseWriter, r *http.Request) {
	req, scope, ok := h.reviewRequest(w, r, false)
	if !ok {
		return
	}
	reportID, present, err := int64Param(req.Params, review.ParamReportID)
	switch {
	case !present:
		respondMissing(w, r, review.ParamReportID)
		return
	case err != nil:
		respondInvalid(w, r, "reportId must be a number")
		return
	}

	ctx := r.Context()
	report, err := h.db.ReportByID(ctx, reportID)
	if err != nil {
		respondStoreError(w, r, err, "Report not found")
		return
	}

	req.SurveyID = nil
	_, q := h.review.Query(req, scope)
	streamExport(w, r, "", "application/json", func(out io.Writer) error {
		sink, err := export.NewReportSink(out, *report)
		if err != nil {
			return err
		}
		if _, err := h.review.Stream(ctx, q, 0, 0, "report", sink); err != nil {
			return err
		}
		return sink.Close()
	})
}
