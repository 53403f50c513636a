// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package recordform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/validation"
)

// Messages shown next to the offending input. They match the client-side
// validation strings so both sides read the same.
const (
	msgRequired          = "This field is required."
	msgMaxLength         = "This field must have a maximal length of %d."
	msgHTML              = "This field contains HTML tags that are not allowed."
	msgPattern           = "Must match the required format."
	msgPatternOrBlank    = "Must match the required format or be blank."
	msgInteger           = "Must be a whole number."
	msgIntegerOrBlank    = "Must be a whole number or blank."
	msgPositive          = "Must be a positive number."
	msgPositiveOrBlank   = "Must be a positive number or blank."
	msgLessThanMillion   = "Must be a positive number (less than 1 000 000)."
	msgRange             = "Must be between %s and %s."
	msgRangeOrBlank      = "Must be between %s and %s or blank."
	msgNumber            = "Must be a number."
	msgNumberOrBlank     = "Must be a number or blank."
	msgDate              = "Must be a valid date."
	msgFutureDate        = "Must not be a date in the future."
	msgTime              = "Must be of format hh:mm."
	msgTimeOrBlank       = "Must be of format hh:mm or blank."
	msgUnknownTaxon      = "Must be a recognised species name."
	maxStringLength      = 255
	maxLessThanMillion   = 1000000 - 1
	dateOptionsRequired  = 2
	rangeOptionsRequired = 2
)

// DateLayouts are the accepted date input formats, form format first.
var DateLayouts = []string{"02 Jan 2006", time.DateOnly, "02/01/2006"}

// now is replaced in tests.
var now = time.Now

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// allowedHTML are the tags permitted in HTML fields.
var allowedHTML = map[string]bool{
	"a": true, "b": true, "br": true, "em": true, "i": true, "li": true,
	"ol": true, "p": true, "span": true, "strong": true, "u": true, "ul": true,
}

type fieldValidator interface {
	validate(ctx context.Context, params url.Values, key string, attr *models.Attribute, errs map[string]string) (bool, error)
}

func registry(taxa TaxonLookup) map[ValidationType]fieldValidator {
	return map[ValidationType]fieldValidator{
		PrimaryKey: intRangeValidator{presence{required: true}, 0, math.MaxInt32},

		String:                  stringValidator{presence{blankAllowed: true}},
		RequiredBlankableString: stringValidator{presence{required: true, blankAllowed: true}},
		RequiredNonblankString:  stringValidator{presence{required: true}},

		HTML: htmlValidator{presence{blankAllowed: true}},

		Barcode:         regexValidator{presence: presence{blankAllowed: true}},
		RequiredBarcode: regexValidator{presence: presence{required: true}},
		Regex:           regexValidator{presence: presence{blankAllowed: true}},
		RequiredRegex:   regexValidator{presence: presence{required: true}},

		Integer:         intRangeValidator{presence{blankAllowed: true}, math.MinInt32, math.MaxInt32},
		RequiredInteger: intRangeValidator{presence{required: true}, math.MinInt32, math.MaxInt32},

		IntegerRange:         dynamicIntRangeValidator{presence{blankAllowed: true}},
		RequiredIntegerRange: dynamicIntRangeValidator{presence{required: true}},

		RequiredPositiveInt:      intRangeValidator{presence{required: true}, 0, math.MaxInt32},
		RequiredPositiveLessThan: intRangeValidator{presence{required: true}, 0, maxLessThanMillion},
		PositiveLessThan:         intRangeValidator{presence{blankAllowed: true}, 0, maxLessThanMillion},

		Double:               doubleRangeValidator{presence{blankAllowed: true}, math.Inf(-1), math.Inf(1)},
		RequiredDouble:       doubleRangeValidator{presence{required: true}, math.Inf(-1), math.Inf(1)},
		RequiredDegLongitude: doubleRangeValidator{presence{required: true}, -180, 180},
		RequiredDegLatitude:  doubleRangeValidator{presence{required: true}, -90, 90},
		DegLongitude:         doubleRangeValidator{presence{blankAllowed: true}, -180, 180},
		DegLatitude:          doubleRangeValidator{presence{blankAllowed: true}, -90, 90},

		Date:                    dateValidator{presence: presence{blankAllowed: true}},
		RequiredDate:            dateValidator{presence: presence{required: true}},
		RequiredHistoricalDate:  dateValidator{presence: presence{required: true}, historical: true},
		BlankableHistoricalDate: dateValidator{presence: presence{}, historical: true},
		DateWithinRange:         dateValidator{presence: presence{}, ranged: true},
		RequiredDateWithinRange: dateValidator{presence: presence{required: true}, ranged: true},

		RequiredTime: regexValidator{presence: presence{required: true}, pattern: timePattern, message: msgTime},
		Time:         regexValidator{presence: presence{blankAllowed: true}, pattern: timePattern, message: msgTimeOrBlank},

		RequiredTaxon: taxonValidator{presence{required: true}, taxa},
		Taxon:         taxonValidator{presence{blankAllowed: true}, taxa},
	}
}

// presence handles the missing and blank cases every validator shares.
type presence struct {
	required     bool
	blankAllowed bool
}

// value returns the trimmed first value of key. done is true when no
// further checking is needed, with ok holding the verdict.
func (p presence) value(params url.Values, key string, errs map[string]string) (value string, done, ok bool) {
	values, present := params[key]
	if present && len(values) > 0 {
		value = strings.TrimSpace(values[0])
	}
	if value != "" {
		return value, false, true
	}
	if !p.required || (present && p.blankAllowed) {
		return "", true, true
	}
	errs[key] = msgRequired
	return "", true, false
}

func fail(errs map[string]string, key, msg string) (bool, error) {
	errs[key] = msg
	return false, nil
}

type stringValidator struct{ presence }

func (v stringValidator) validate(_ context.Context, params url.Values, key string, _ *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	if err := validation.GetValidator().Var(value, "max="+strconv.Itoa(maxStringLength)); err != nil {
		return fail(errs, key, fmt.Sprintf(msgMaxLength, maxStringLength))
	}
	return true, nil
}

type htmlValidator struct{ presence }

func (v htmlValidator) validate(_ context.Context, params url.Values, key string, _ *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	z := html.NewTokenizer(strings.NewReader(value))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return true, nil
			}
			return fail(errs, key, msgHTML)
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if !allowedHTML[string(name)] {
				return fail(errs, key, msgHTML)
			}
		}
	}
}

// regexValidator matches a fixed pattern, or the attribute's first option
// when no pattern is set. Without either any value passes.
type regexValidator struct {
	presence
	pattern *regexp.Regexp
	message string
}

func (v regexValidator) validate(_ context.Context, params url.Values, key string, attr *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	re := v.pattern
	if re == nil {
		opts := attr.OptionValues()
		if len(opts) == 0 || opts[0] == "" {
			return true, nil
		}
		var err error
		if re, err = regexp.Compile("^(?:" + opts[0] + ")$"); err != nil {
			return false, fmt.Errorf("attribute %d pattern: %w", attr.ID, err)
		}
	}
	if re.MatchString(value) {
		return true, nil
	}
	msg := v.message
	if msg == "" {
		msg = msgPattern
		if v.blankAllowed {
			msg = msgPatternOrBlank
		}
	}
	return fail(errs, key, msg)
}

type intRangeValidator struct {
	presence
	min, max int64
}

func (v intRangeValidator) validate(_ context.Context, params url.Values, key string, _ *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < v.min || n > v.max {
		return fail(errs, key, v.message())
	}
	return true, nil
}

func (v intRangeValidator) message() string {
	switch {
	case v.min == math.MinInt32 && v.max == math.MaxInt32:
		return orBlank(v.blankAllowed, msgInteger, msgIntegerOrBlank)
	case v.min == 0 && v.max == maxLessThanMillion:
		return msgLessThanMillion
	case v.min == 0 && v.max == math.MaxInt32:
		return orBlank(v.blankAllowed, msgPositive, msgPositiveOrBlank)
	}
	return rangeMessage(v.blankAllowed, strconv.FormatInt(v.min, 10), strconv.FormatInt(v.max, 10))
}

// dynamicIntRangeValidator reads its bounds from the attribute's first two
// options. Without them it only checks for a whole number.
type dynamicIntRangeValidator struct{ presence }

func (v dynamicIntRangeValidator) validate(ctx context.Context, params url.Values, key string, attr *models.Attribute, errs map[string]string) (bool, error) {
	bounds := intRangeValidator{v.presence, math.MinInt32, math.MaxInt32}
	if opts := attr.OptionValues(); len(opts) >= rangeOptionsRequired {
		lo, errLo := strconv.ParseInt(strings.TrimSpace(opts[0]), 10, 32)
		hi, errHi := strconv.ParseInt(strings.TrimSpace(opts[1]), 10, 32)
		if errLo == nil && errHi == nil {
			bounds.min, bounds.max = lo, hi
		}
	}
	return bounds.validate(ctx, params, key, attr, errs)
}

type doubleRangeValidator struct {
	presence
	min, max float64
}

func (v doubleRangeValidator) validate(_ context.Context, params url.Values, key string, _ *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	bounded := !math.IsInf(v.min, 0) || !math.IsInf(v.max, 0)
	switch {
	case err != nil || math.IsNaN(f):
		if bounded {
			return fail(errs, key, v.rangeMessage())
		}
		return fail(errs, key, orBlank(v.blankAllowed, msgNumber, msgNumberOrBlank))
	case f < v.min || f > v.max:
		return fail(errs, key, v.rangeMessage())
	}
	return true, nil
}

func (v doubleRangeValidator) rangeMessage() string {
	return rangeMessage(v.blankAllowed, strconv.FormatFloat(v.min, 'f', -1, 64), strconv.FormatFloat(v.max, 'f', -1, 64))
}

// dateValidator parses DateLayouts. historical rejects dates after today;
// ranged reads inclusive bounds from the attribute's first two options.
type dateValidator struct {
	presence
	historical bool
	ranged     bool
}

func (v dateValidator) validate(_ context.Context, params url.Values, key string, attr *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done {
		return ok, nil
	}
	d, ok := ParseDate(value)
	if !ok {
		return fail(errs, key, msgDate)
	}
	if v.historical {
		y, m, day := now().Date()
		if d.After(time.Date(y, m, day, 0, 0, 0, 0, time.UTC)) {
			return fail(errs, key, msgFutureDate)
		}
	}
	if v.ranged {
		if opts := attr.OptionValues(); len(opts) >= dateOptionsRequired {
			lo, okLo := ParseDate(opts[0])
			hi, okHi := ParseDate(opts[1])
			if okLo && okHi && (d.Before(lo) || d.After(hi)) {
				return fail(errs, key, rangeMessage(v.blankAllowed, opts[0], opts[1]))
			}
		}
	}
	return true, nil
}

// ParseDate tries each of DateLayouts and returns the date at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

type taxonValidator struct {
	presence
	taxa TaxonLookup
}

func (v taxonValidator) validate(ctx context.Context, params url.Values, key string, _ *models.Attribute, errs map[string]string) (bool, error) {
	value, done, ok := v.value(params, key, errs)
	if done || v.taxa == nil {
		return ok, nil
	}
	if _, err := v.taxa.SpeciesByName(ctx, value); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fail(errs, key, msgUnknownTaxon)
		}
		return false, fmt.Errorf("look up taxon %q: %w", value, err)
	}
	return true, nil
}

func orBlank(blankAllowed bool, msg, blankMsg string) string {
	if blankAllowed {
		return blankMsg
	}
	return msg
}

func rangeMessage(blankAllowed bool, lo, hi string) string {
	return fmt.Sprintf(orBlank(blankAllowed, msgRange, msgRangeOrBlank), lo, hi)
}
