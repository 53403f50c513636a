// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package validation wraps go-playground/validator v10 behind a process-wide
// singleton and translates field errors into VALIDATION_ERROR responses.
//
// Request structs declare their rules with tags:
//
//	type DownloadRequest struct {
//	    Formats []string `validate:"required,min=1,dive,oneof=csv xlsx kml json"`
//	}
//
// Custom tags registered here:
//   - sortorder: ASC or DESC, case-insensitive
//   - hhmm: a 24 hour clock time such as 09:30
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const codeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		for tag, fn := range customTags {
			// only fails for an empty tag or nil func
			_ = validate.RegisterValidation(tag, fn)
		}
	})
	return validate
}

var clockTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var customTags = map[string]validator.Func{
	"sortorder": func(fl validator.FieldLevel) bool {
		o := strings.ToUpper(fl.Field().String())
		return o == "ASC" || o == "DESC"
	},
	"hhmm": func(fl validator.FieldLevel) bool {
		return clockTime.MatchString(fl.Field().String())
	},
}

// ValidationError is one failed rule on one field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field is the struct field name.
func (e *ValidationError) Field() string { return e.field }

// Tag is the rule that failed, e.g. "max".
func (e *ValidationError) Tag() string { return e.tag }

// Param is the rule argument, e.g. "500" for max=500.
func (e *ValidationError) Param() string { return e.param }

// Value is the rejected value.
func (e *ValidationError) Value() interface{} { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the failures in field order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve.errors))
	for i := range ve.errors {
		parts[i] = ve.errors[i].message
	}
	return strings.Join(parts, "; ")
}

// APIError has the shape of models.APIError, which cannot be imported here.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError builds the VALIDATION_ERROR body. A single failure reports its
// field, tag and value; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: codeValidation, Message: "Validation failed"}
	case 1:
		e := ve.errors[0]
		return &APIError{
			Code:    codeValidation,
			Message: e.message,
			Details: map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value},
		}
	}

	fields := make([]map[string]interface{}, 0, len(ve.errors))
	lines := make([]string, 0, len(ve.errors))
	for _, e := range ve.errors {
		fields = append(fields, map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message})
		lines = append(lines, e.field+": "+e.message)
	}
	return &APIError{
		Code:    codeValidation,
		Message: strings.Join(lines, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// ValidateStruct checks s against its validate tags. It returns nil when s
// is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe.Field(), fe.Tag(), fe.Param(), fe.Kind()),
		})
	}
	return &RequestValidationError{errors: out}
}

// plainMessages take the field name; paramMessages also take the rule argument.
var (
	plainMessages = map[string]string{
		"required":  "%s is required",
		"latitude":  "%s must be a valid latitude (-90 to 90)",
		"longitude": "%s must be a valid longitude (-180 to 180)",
		"numeric":   "%s must be a number",
		"email":     "%s must be a valid email address",
		"sortorder": "%s must be ASC or DESC",
		"hhmm":      "%s must be of format hh:mm",
	}
	paramMessages = map[string]string{
		"oneof": "%s must be one of: %s",
		"gt":    "%s must be greater than %s",
		"gte":   "%s must be greater than or equal to %s",
		"lt":    "%s must be less than %s",
		"lte":   "%s must be less than or equal to %s",
	}
)

func describe(field, tag, param string, kind reflect.Kind) string {
	if tmpl, ok := plainMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	unit := ""
	if kind == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
