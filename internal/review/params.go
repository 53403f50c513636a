// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gaiaresources/bdrs-review/internal/validation"
)

// Request parameter names
const (
	ParamSurveyID       = "surveyId"
	ParamSortBy         = "sortBy"
	ParamSortOrder      = "sortOrder"
	ParamSearchText     = "searchText"
	ParamResultsPerPage = "resultsPerPage"
	ParamPageNumber     = "pageNumber"
	ParamViewType       = "viewType"
	ParamLocations      = "locations"
	ParamLocationArea   = "locationArea"
	ParamSourcePage     = "sourcePage"
	ParamRecordID       = "recordId"
	ParamDownloadFormat = "downloadFormat"
	ParamReportID       = "reportId"
)

// Defaults shown on the review page when the request leaves them out.
const (
	DefaultSortBy    = "record.when"
	DefaultSortOrder = "DESC"
)

// Download formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatKML  = "kml"
	FormatJSON = "json"
)

// ReviewRequest is the parsed form of a review page, JSON or KML request.
// Params keeps the raw parameter map for the facets.
type ReviewRequest struct {
	Params         url.Values `validate:"-"`
	SurveyID       *int64
	SortBy         string
	SortOrder      string
	SearchText     string
	ResultsPerPage int   `validate:"min=1,max=500"`
	PageNumber     int64 `validate:"gte=0"`
}

// NewReviewRequest reads the common review parameters. Values that do not
// parse fall back to their defaults; range checks are left to Validate.
func NewReviewRequest(params url.Values, defaultPageSize int) *ReviewRequest {
	if params == nil {
		params = url.Values{}
	}
	req := &ReviewRequest{
		Params:         params,
		SurveyID:       optionalInt64(params.Get(ParamSurveyID)),
		SortBy:         strings.TrimSpace(params.Get(ParamSortBy)),
		SortOrder:      strings.TrimSpace(params.Get(ParamSortOrder)),
		SearchText:     params.Get(ParamSearchText),
		ResultsPerPage: defaultPageSize,
		PageNumber:     1,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(params.Get(ParamResultsPerPage))); err == nil {
		req.ResultsPerPage = n
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(params.Get(ParamPageNumber)), 10, 64); err == nil {
		req.PageNumber = n
	}
	return req
}

// Validate applies the struct tags.
func (r *ReviewRequest) Validate() *validation.RequestValidationError {
	return validation.ValidateStruct(r)
}

// DisplaySort returns the sort shown to the client, with defaults filled in.
func (r *ReviewRequest) DisplaySort() (sortBy, sortOrder string) {
	sortBy, sortOrder = r.SortBy, r.SortOrder
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	if sortOrder == "" {
		sortOrder = DefaultSortOrder
	}
	return sortBy, sortOrder
}

// DownloadRequest carries the requested download formats.
type DownloadRequest struct {
	Formats []string `validate:"required,min=1,dive,oneof=csv xlsx kml json"`
}

// NewDownloadRequest collects downloadFormat values, which may repeat or be
// comma separated. Duplicates are dropped, keeping first-seen order.
func NewDownloadRequest(params url.Values) *DownloadRequest {
	req := &DownloadRequest{}
	seen := make(map[string]bool)
	for _, raw := range params[ParamDownloadFormat] {
		for _, f := range strings.Split(raw, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			req.Formats = append(req.Formats, f)
		}
	}
	return req
}

// Validate applies the struct tags.
func (r *DownloadRequest) Validate() *validation.RequestValidationError {
	return validation.ValidateStruct(r)
}

func optionalInt64(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
