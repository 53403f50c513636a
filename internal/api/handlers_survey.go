// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/review"
)

// ParamRedirectSurveyID is added to the redirect target.
const ParamRedirectSurveyID = "survey_id"

// Contribution pages per renderer type.
var rendererURLs = map[string]string{
	models.RendererYearlySightings:     "/bdrs/user/yearlySightings.htm",
	models.RendererSingleSiteMultiTaxa: "/bdrs/user/singleSiteMultiTaxa.htm",
	models.RendererSingleSiteAllTaxa:   "/bdrs/user/singleSiteAllTaxa.htm",
	models.RendererAtlas:               "/bdrs/user/atlas.htm",
	models.RendererDefault:             "/bdrs/user/tracker.htm",
}

// RendererURL returns the contribution page for a renderer type. Unknown and
// unset types use the tracker.
func RendererURL(rendererType string) string {
	if u, ok := rendererURLs[rendererType]; ok {
		return u
	}
	return rendererURLs[models.RendererDefault]
}

var errNoDefaultSurvey = errors.New("no default survey configured")

// SurveyRenderRedirect redirects to the contribution page for a survey.
//
// @Summary Survey contribution redirect
// @Tags Survey
// @Param surveyId query int false "Survey; defaults to the survey.default preference"
// @Success 302
// @Failure 404 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /bdrs/user/surveyRenderRedirect [get]
func (h *Handler) SurveyRenderRedirect(w http.ResponseWriter, r *http.Request) {
	params, err := formParams(r)
	if err != nil {
		respondInvalid(w, r, "Malformed request parameters")
		return
	}

	surveyID, err := strconv.ParseInt(strings.TrimSpace(params.Get(review.ParamSurveyID)), 10, 64)
	if err != nil {
		if surveyID, err = h.defaultSurveyID(r); err != nil {
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "No default survey is configured", err)
			return
		}
	}

	survey, err := h.db.SurveyByID(r.Context(), surveyID)
	if err != nil {
		respondStoreError(w, r, err, "Survey not found")
		return
	}

	target := url.Values{}
	for k, v := range params {
		target[k] = v
	}
	target.Set(ParamRedirectSurveyID, strconv.FormatInt(survey.ID, 10))
	http.Redirect(w, r, RendererURL(survey.RendererType)+"?"+target.Encode(), http.StatusFound)
}

// defaultSurveyID reads the survey.default preference, then the configured
// fallback.
func (h *Handler) defaultSurveyID(r *http.Request) (int64, error) {
	pref, err := h.db.Preference(r.Context(), models.PreferenceDefaultSurvey)
	switch {
	case err == nil:
		id, perr := strconv.ParseInt(strings.TrimSpace(pref), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("preference %s=%q: %w", models.PreferenceDefaultSurvey, pref, perr)
		}
		return id, nil
	case !errors.Is(err, database.ErrNotFound):
		return 0, err
	}
	if h.config.Survey.DefaultSurveyID > 0 {
		return h.config.Survey.DefaultSurveyID, nil
	}
	return 0, errNoDefaultSurvey
}
