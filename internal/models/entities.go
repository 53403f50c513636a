// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package models

import (
	"strings"
	"time"
)

// Record visibility levels
const (
	VisibilityOwnerOnly  = "OWNER_ONLY"
	VisibilityControlled = "CONTROLLED"
	VisibilityPublic     = "PUBLIC"
)

// User roles, in increasing order of privilege
const (
	RoleUser       = "ROLE_USER"
	RolePowerUser  = "ROLE_POWER_USER"
	RoleSupervisor = "ROLE_SUPERVISOR"
	RoleAdmin      = "ROLE_ADMIN"
)

// Survey renderer types
const (
	RendererDefault             = "DEFAULT"
	RendererYearlySightings     = "YEARLY_SIGHTINGS"
	RendererSingleSiteMultiTaxa = "SINGLE_SITE_MULTI_TAXA"
	RendererSingleSiteAllTaxa   = "SINGLE_SITE_ALL_TAXA"
	RendererAtlas               = "ATLAS"
)

// Well-known metadata and preference keys
const (
	MetadataDefaultLocation  = "location.default"
	PreferenceDefaultSurvey  = "survey.default"
	PreferenceDefaultMapView = "advancedReview.defaultToMapView"
)

// User is a registered BDRS user.
type User struct {
	ID              int64  `json:"id"`
	Login           string `json:"login"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	RegistrationKey string `json:"-"`
	Role            string `json:"role"`
	Active          bool   `json:"active"`
}

// Name returns "first last", falling back to the login.
func (u *User) Name() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Login
	}
	return name
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Survey is a recording project records are submitted against.
type Survey struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Active       bool       `json:"active"`
	Public       bool       `json:"public"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	RendererType string     `json:"rendererType"`
}

// TaxonGroup groups species, e.g. "Birds" or "Frogs".
type TaxonGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Species is an indicator species.
type Species struct {
	ID             int64  `json:"id"`
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName"`
	TaxonGroupID   *int64 `json:"taxonGroupId,omitempty"`
}

// CensusMethod describes how a sighting was observed.
type CensusMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Location is a named site, optionally bookmarked by a user.
type Location struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	UserID    *int64   `json:"userId,omitempty"`
	SurveyID  *int64   `json:"surveyId,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	WKT       string   `json:"wkt,omitempty"`
}

// Attribute is a survey or census method specific field.
type Attribute struct {
	ID             int64             `json:"id"`
	SurveyID       *int64            `json:"surveyId,omitempty"`
	CensusMethodID *int64            `json:"censusMethodId,omitempty"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	TypeCode       string            `json:"typeCode"`
	Required       bool              `json:"required"`
	Scope          string            `json:"scope"`
	Options        []AttributeOption `json:"options,omitempty"`
}

// OptionValues returns the option values in position order.
func (a *Attribute) OptionValues() []string {
	if a == nil {
		return nil
	}
	values := make([]string, 0, len(a.Options))
	for _, o := range a.Options {
		values = append(values, o.Value)
	}
	return values
}

// AttributeOption is one allowed value (or a range bound) of an attribute.
type AttributeOption struct {
	ID          int64  `json:"id"`
	AttributeID int64  `json:"attributeId"`
	Value       string `json:"value"`
	Position    int    `json:"position"`
}

// AttributeValue is the value of an attribute on a record or location.
type AttributeValue struct {
	ID            int64      `json:"id"`
	RecordID      *int64     `json:"recordId,omitempty"`
	LocationID    *int64     `json:"locationId,omitempty"`
	AttributeID   int64      `json:"attributeId"`
	AttributeName string     `json:"attributeName"`
	StringValue   string     `json:"stringValue"`
	NumericValue  *float64   `json:"numericValue,omitempty"`
	DateValue     *time.Time `json:"dateValue,omitempty"`
}

// Record is a single sighting.
type Record struct {
	ID             int64     `json:"id"`
	SurveyID       int64     `json:"surveyId"`
	SpeciesID      *int64    `json:"speciesId,omitempty"`
	LocationID     *int64    `json:"locationId,omitempty"`
	CensusMethodID *int64    `json:"censusMethodId,omitempty"`
	UserID         int64     `json:"userId"`
	When           time.Time `json:"when"`
	CreatedAt      time.Time `json:"createdAt"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Number         *int64    `json:"number,omitempty"`
	Notes          string    `json:"notes"`
	Held           bool      `json:"held"`
	Visibility     string    `json:"visibility"`

	Species         *Species         `json:"species,omitempty"`
	Location        *Location        `json:"location,omitempty"`
	CensusMethod    *CensusMethod    `json:"censusMethod,omitempty"`
	User            *User            `json:"user,omitempty"`
	Survey          *Survey          `json:"survey,omitempty"`
	AttributeValues []AttributeValue `json:"attributeValues,omitempty"`
}

// HasPoint reports whether the record carries coordinates.
func (r *Record) HasPoint() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// MetadataEntry is a key/value pair attached to a user or survey.
type MetadataEntry struct {
	ID       int64  `json:"id"`
	UserID   *int64 `json:"userId,omitempty"`
	SurveyID *int64 `json:"surveyId,omitempty"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// Report kinds
const (
	ReportSpeciesSummary = "species_summary"
	ReportSurveySummary  = "survey_summary"
)

// Report is a registered report that can run over the review result set.
type Report struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
}
