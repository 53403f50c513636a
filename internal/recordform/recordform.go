// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package recordform validates posted record form fields.
//
// Each field is checked by the validator registered for its ValidationType.
// Failures are collected per input name and reported in key order so that
// repeated submissions produce the same error list.
package recordform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// ErrUnknownValidationType is returned when no validator is registered for a type.
var ErrUnknownValidationType = errors.New("unknown validation type")

// ValidationType names the kind of check applied to a form field.
type ValidationType string

const (
	PrimaryKey               ValidationType = "PRIMARYKEY"
	String                   ValidationType = "STRING"
	RequiredBlankableString  ValidationType = "REQUIRED_BLANKABLE_STRING"
	RequiredNonblankString   ValidationType = "REQUIRED_NONBLANK_STRING"
	HTML                     ValidationType = "HTML"
	Barcode                  ValidationType = "BARCODE"
	RequiredBarcode          ValidationType = "REQUIRED_BARCODE"
	Regex                    ValidationType = "REGEX"
	RequiredRegex            ValidationType = "REQUIRED_REGEX"
	Integer                  ValidationType = "INTEGER"
	RequiredInteger          ValidationType = "REQUIRED_INTEGER"
	IntegerRange             ValidationType = "INTEGER_RANGE"
	RequiredIntegerRange     ValidationType = "REQUIRED_INTEGER_RANGE"
	RequiredPositiveInt      ValidationType = "REQUIRED_POSITIVE_INT"
	RequiredPositiveLessThan ValidationType = "REQUIRED_POSITIVE_LESSTHAN"
	PositiveLessThan         ValidationType = "POSITIVE_LESSTHAN"
	Double                   ValidationType = "DOUBLE"
	RequiredDouble           ValidationType = "REQUIRED_DOUBLE"
	RequiredDegLongitude     ValidationType = "REQUIRED_DEG_LONGITUDE"
	RequiredDegLatitude      ValidationType = "REQUIRED_DEG_LATITUDE"
	DegLongitude             ValidationType = "DEG_LONGITUDE"
	DegLatitude              ValidationType = "DEG_LATITUDE"
	Date                     ValidationType = "DATE"
	RequiredDate             ValidationType = "REQUIRED_DATE"
	RequiredHistoricalDate   ValidationType = "REQUIRED_HISTORICAL_DATE"
	BlankableHistoricalDate  ValidationType = "BLANKABLE_HISTORICAL_DATE"
	DateWithinRange          ValidationType = "DATE_WITHIN_RANGE"
	RequiredDateWithinRange  ValidationType = "REQUIRED_DATE_WITHIN_RANGE"
	RequiredTime             ValidationType = "REQUIRED_TIME"
	Time                     ValidationType = "TIME"
	RequiredTaxon            ValidationType = "REQUIRED_TAXON"
	Taxon                    ValidationType = "TAXON"
)

// TaxonLookup resolves species names for the taxon validators.
type TaxonLookup interface {
	SpeciesByName(ctx context.Context, name string) (*models.Species, error)
}

// Validator collects field errors for one form submission. It is not safe
// for concurrent use; create one per request.
type Validator struct {
	validators map[ValidationType]fieldValidator
	errors     map[string]string
}

// New builds a validator with every ValidationType registered. taxa may be
// nil, in which case any non-blank taxon name is accepted.
func New(taxa TaxonLookup) *Validator {
	return &Validator{
		validators: registry(taxa),
		errors:     make(map[string]string),
	}
}

// Validate checks the first value of params[key] with the validator for
// typ. A failure is recorded against key and false is returned.
func (v *Validator) Validate(ctx context.Context, params url.Values, typ ValidationType, key string, attr *models.Attribute) (bool, error) {
	fv, ok := v.validators[typ]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownValidationType, typ)
	}
	return fv.validate(ctx, params, key, attr, v.errors)
}

// ValidateProperty is Validate for a record property. Hidden properties
// are not shown on the form, so they always pass.
func (v *Validator) ValidateProperty(ctx context.Context, params url.Values, typ ValidationType, key string, attr *models.Attribute, hidden bool) (bool, error) {
	if hidden {
		return true, nil
	}
	return v.Validate(ctx, params, typ, key, attr)
}

// ErrorMap returns a copy of the recorded messages keyed by input name.
func (v *Validator) ErrorMap() map[string]string {
	out := make(map[string]string, len(v.errors))
	for k, msg := range v.errors {
		out[k] = msg
	}
	return out
}

// Errors returns the recorded messages sorted by input name.
func (v *Validator) Errors() []models.FieldError {
	keys := make([]string, 0, len(v.errors))
	for k := range v.errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.FieldError, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.FieldError{Key: k, Message: v.errors[k]})
	}
	return out
}

// Check runs every rule against params and returns the sorted result.
func (v *Validator) Check(ctx context.Context, params url.Values, rules []models.FieldRule, attrs map[int64]*models.Attribute) (models.RecordValidationResult, error) {
	valid := true
	for _, rule := range rules {
		var attr *models.Attribute
		if rule.AttributeID != nil {
			attr = attrs[*rule.AttributeID]
		}
		ok, err := v.ValidateProperty(ctx, params, ValidationType(rule.Type), rule.Key, attr, rule.Hidden)
		if err != nil {
			return models.RecordValidationResult{}, err
		}
		valid = valid && ok
	}
	return models.RecordValidationResult{Valid: valid, Errors: v.Errors()}, nil
}
