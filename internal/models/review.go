// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package models

// Review view types
const (
	ViewTable    = "table"
	ViewMap      = "map"
	ViewDownload = "download"
)

// FacetOption is one selectable value of a facet with its record count.
type FacetOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Count    int64  `json:"count"`
	Selected bool   `json:"selected"`
}

// FacetView is a facet as rendered in the review page sidebar.
type FacetView struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	InputName   string        `json:"inputName"`
	Active      bool          `json:"active"`
	Options     []FacetOption `json:"options"`
}

// ReviewView is the advanced review / my sightings page model.
type ReviewView struct {
	FacetList      []FacetView `json:"facetList"`
	SurveyID       *int64      `json:"surveyId,omitempty"`
	SortBy         string      `json:"sortBy"`
	SortOrder      string      `json:"sortOrder"`
	SearchText     string      `json:"searchText"`
	RecordCount    int64       `json:"recordCount"`
	ResultsPerPage int         `json:"resultsPerPage"`
	PageCount      int64       `json:"pageCount"`
	PageNumber     int64       `json:"pageNumber"`
	ViewType       string      `json:"viewType"`
	Locations      string      `json:"locations,omitempty"`
	LatestRecordID string      `json:"latestRecordId,omitempty"`
	Reports        []Report    `json:"reportList"`
}

// WKTValidation is the isValidWkt response body.
type WKTValidation struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int            `json:"imported"`
	Messages []string       `json:"messages"`
	IDs      map[string]int `json:"ids"`
}

// FieldRule asks the record form validator to check one posted field.
type FieldRule struct {
	Key         string `json:"key" validate:"required"`
	Type        string `json:"type" validate:"required"`
	AttributeID *int64 `json:"attributeId,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// RecordValidationRequest is the body of POST /record/validate.
type RecordValidationRequest struct {
	Params map[string]string `json:"params"`
	Rules  []FieldRule       `json:"rules" validate:"required,min=1,dive"`
}

// RecordValidationResult lists field errors sorted by key.
type RecordValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// FieldError is a single failed field.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}
