// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

func TestSurveyRenderRedirect(t *testing.T) {
	s := newTestServer(t)
	frogs := strconv.FormatInt(s.fx.Frogs, 10)

	rec := s.get(t, "/bdrs/user/surveyRenderRedirect?surveyId="+frogs, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.get(t, "/bdrs/user/surveyRenderRedirect?surveyId="+frogs+"&extra=1", "alice-key")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	target, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/bdrs/user/atlas.htm", target.Path)
	assert.Equal(t, frogs, target.Query().Get(ParamRedirectSurveyID))
	assert.Equal(t, "1", target.Query().Get("extra"))

	rec = s.get(t, "/bdrs/user/surveyRenderRedirect?surveyId=9999", "alice-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// no preference and no configured default
	rec = s.get(t, "/bdrs/user/surveyRenderRedirect?surveyId=birds", "alice-key")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	s.cfg.Survey.DefaultSurveyID = s.fx.Frogs
	rec = s.get(t, "/bdrs/user/surveyRenderRedirect", "alice-key")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/bdrs/user/atlas.htm?"))

	// the preference wins over the configured default
	require.NoError(t, s.db.SetPreference(t.Context(), models.PreferenceDefaultSurvey, strconv.FormatInt(s.fx.Birds, 10)))
	rec = s.get(t, "/bdrs/user/surveyRenderRedirect", "alice-key")
	require.Equal(t, http.StatusFound, rec.Code)
	target, err = url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/bdrs/user/tracker.htm", target.Path)
	assert.Equal(t, strconv.FormatInt(s.fx.Birds, 10), target.Query().Get(ParamRedirectSurveyID))

	require.NoError(t, s.db.SetPreference(t.Context(), models.PreferenceDefaultSurvey, "not a number"))
	rec = s.get(t, "/bdrs/user/surveyRenderRedirect", "alice-key")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRendererURL(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		models.RendererYearlySightings:     "/bdrs/user/yearlySightings.htm",
		models.RendererSingleSiteMultiTaxa: "/bdrs/user/singleSiteMultiTaxa.htm",
		models.RendererSingleSiteAllTaxa:   "/bdrs/user/singleSiteAllTaxa.htm",
		models.RendererAtlas:               "/bdrs/user/atlas.htm",
		models.RendererDefault:             "/bdrs/user/tracker.htm",
		"":                                 "/bdrs/user/tracker.htm",
		"CUSTOM":                           "/bdrs/user/tracker.htm",
	}
	for renderer, want := range tests {
		assert.Equal(t, want, RendererURL(renderer), renderer)
	}
}

func TestContent(t *testing.T) {
	s := newTestServer(t)

	put := func(key, ident, body string) int {
		return s.do(t, http.MethodPut, "/content/"+key, ident, strings.NewReader(body)).Code
	}
	assert.Equal(t, http.StatusUnauthorized, put("email/welcome", "", "hi"))
	assert.Equal(t, http.StatusForbidden, put("email/welcome", "alice-key", "hi"))
	assert.Equal(t, http.StatusOK, put("email/welcome", "admin-key", "Welcome aboard"))
	assert.Equal(t, http.StatusOK, put("help/review", "admin-key", "Use the facets"))

	rec := s.get(t, "/content/email/welcome", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry ContentEntry
	decode(t, rec, &entry)
	assert.Equal(t, ContentEntry{Key: "email/welcome", Value: "Welcome aboard"}, entry)

	rec = s.get(t, "/content/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var keys []string
	decode(t, s.get(t, "/content", ""), &keys)
	assert.Equal(t, []string{"email/welcome", "help/review"}, keys)

	decode(t, s.get(t, "/content?like="+url.QueryEscape("email/%"), ""), &keys)
	assert.Equal(t, []string{"email/welcome"}, keys)
}

func TestImport(t *testing.T) {
	s := newTestServer(t)
	body := `[{"_class": "Survey", "_id": 40, "name": "Imported Frogs"},
	          {"_class": "Location", "_id": 41, "name": "Creek", "location": "POINT(115.9 -32.0)", "survey": 40}]`

	rec := s.do(t, http.MethodPost, "/import", "alice-key", strings.NewReader(body))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/import", "admin-key", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.ImportResult
	decode(t, rec, &result)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, map[string]int{"Survey": 1, "Location": 1}, result.IDs)

	rec = s.do(t, http.MethodPost, "/import", "admin-key", strings.NewReader(`{"_class": "Survey"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/import", "admin-key", strings.NewReader(`[{"_class": "Survey", "name": "ok"}, {"_class": "Giraffe"}]`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.EqualValues(t, 1, env.Error.Details["imported"])
}

func TestValidateRecord(t *testing.T) {
	s := newTestServer(t)
	weather := strconv.FormatInt(s.fx.Weather, 10)
	body := `{"params": {"when": "yesterday", "latitude": "-31.9"},
	          "rules": [{"key": "when", "type": "REQUIRED_DATE"},
	                    {"key": "number", "type": "REQUIRED_POSITIVE_INT"},
	                    {"key": "latitude", "type": "REQUIRED_DEG_LATITUDE"},
	                    {"key": "attribute_1", "type": "STRING", "attributeId": ` + weather + `}]}`

	rec := s.do(t, http.MethodPost, "/record/validate", "", strings.NewReader(body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/record/validate", "alice-key", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.RecordValidationResult
	decode(t, rec, &res)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "number", res.Errors[0].Key)
	assert.Equal(t, "when", res.Errors[1].Key)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", "when=today", http.StatusBadRequest},
		{"no rules", `{"params": {}, "rules": []}`, http.StatusBadRequest},
		{"unknown type", `{"rules": [{"key": "x", "type": "COLOUR"}]}`, http.StatusBadRequest},
		{"unknown attribute", `{"rules": [{"key": "x", "type": "STRING", "attributeId": 9999}]}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/record/validate", "alice-key", strings.NewReader(tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.get(t, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.HealthStatus
	decode(t, rec, &status)
	assert.True(t, status.DatabaseConnected)
	assert.True(t, status.SessionStoreOpen)
	assert.Equal(t, Version, status.Version)

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	mrec := httptest.NewRecorder()
	s.handler.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	s := newTestServer(t)
	rec := s.get(t, "/review/sightings/advancedReview", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.get(t, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
