// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package recordform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

type fakeTaxa map[string]bool

func (f fakeTaxa) SpeciesByName(_ context.Context, name string) (*models.Species, error) {
	if name == "boom" {
		return nil, errors.New("connection reset")
	}
	if f[strings.ToLower(name)] {
		return &models.Species{ID: 1, ScientificName: name}, nil
	}
	return nil, fmt.Errorf("species %q: %w", name, database.ErrNotFound)
}

func withOptions(values ...string) *models.Attribute {
	a := &models.Attribute{ID: 9, Name: "field"}
	for i, v := range values {
		a.Options = append(a.Options, models.AttributeOption{Value: v, Position: i})
	}
	return a
}

func TestAllTypesRegistered(t *testing.T) {
	t.Parallel()
	assert.Len(t, registry(nil), 32)
}

func TestValidate(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	tests := []struct {
		name    string
		typ     ValidationType
		params  url.Values
		attr    *models.Attribute
		want    bool
		wantMsg string
	}{
		{"required missing", RequiredInteger, url.Values{}, nil, false, msgRequired},
		{"required blank", RequiredNonblankString, url.Values{"f": {"  "}}, nil, false, msgRequired},
		{"blankable present blank", RequiredBlankableString, url.Values{"f": {""}}, nil, true, ""},
		{"blankable absent", RequiredBlankableString, url.Values{}, nil, false, msgRequired},
		{"optional missing", Integer, url.Values{}, nil, true, ""},
		{"first value only", Integer, url.Values{"f": {"3", "x"}}, nil, true, ""},

		{"string too long", String, url.Values{"f": {strings.Repeat("a", 256)}}, nil, false, "This field must have a maximal length of 255."},
		{"string ok", String, url.Values{"f": {"Magpie"}}, nil, true, ""},

		{"html allowed", HTML, url.Values{"f": {"<p>Two <b>adults</b><br/></p>"}}, nil, true, ""},
		{"html script", HTML, url.Values{"f": {"<script>alert(1)</script>"}}, nil, false, msgHTML},

		{"regex from attribute", RequiredRegex, url.Values{"f": {"AB-12"}}, withOptions(`[A-Z]{2}-\d+`), true, ""},
		{"regex mismatch", RequiredRegex, url.Values{"f": {"ab-12"}}, withOptions(`[A-Z]{2}-\d+`), false, msgPattern},
		{"barcode without pattern", Barcode, url.Values{"f": {"anything"}}, nil, true, ""},

		{"integer", RequiredInteger, url.Values{"f": {"-4"}}, nil, true, ""},
		{"integer not a number", Integer, url.Values{"f": {"4.5"}}, nil, false, msgIntegerOrBlank},
		{"primary key negative", PrimaryKey, url.Values{"f": {"-1"}}, nil, false, msgPositive},
		{"positive int", RequiredPositiveInt, url.Values{"f": {"0"}}, nil, true, ""},
		{"less than a million", RequiredPositiveLessThan, url.Values{"f": {"1000000"}}, nil, false, msgLessThanMillion},
		{"less than a million edge", PositiveLessThan, url.Values{"f": {"999999"}}, nil, true, ""},

		{"dynamic range inside", RequiredIntegerRange, url.Values{"f": {"5"}}, withOptions("1", "10"), true, ""},
		{"dynamic range outside", RequiredIntegerRange, url.Values{"f": {"11"}}, withOptions("1", "10"), false, "Must be between 1 and 10."},
		{"dynamic range no bounds", IntegerRange, url.Values{"f": {"11"}}, nil, true, ""},
		{"dynamic range blank message", IntegerRange, url.Values{"f": {"0"}}, withOptions("1", "10"), false, "Must be between 1 and 10 or blank."},

		{"double", RequiredDouble, url.Values{"f": {"2.5"}}, nil, true, ""},
		{"double invalid", RequiredDouble, url.Values{"f": {"two"}}, nil, false, msgNumber},
		{"latitude out of range", RequiredDegLatitude, url.Values{"f": {"-91"}}, nil, false, "Must be between -90 and 90."},
		{"longitude blank allowed", DegLongitude, url.Values{"f": {""}}, nil, true, ""},
		{"longitude invalid", DegLongitude, url.Values{"f": {"east"}}, nil, false, "Must be between -180 and 180 or blank."},

		{"date form layout", RequiredDate, url.Values{"f": {"01 Mar 2024"}}, nil, true, ""},
		{"date iso layout", Date, url.Values{"f": {"2024-03-01"}}, nil, true, ""},
		{"date invalid", RequiredDate, url.Values{"f": {"31 Feb 2024"}}, nil, false, msgDate},
		{"historical today", RequiredHistoricalDate, url.Values{"f": {"01 Jun 2024"}}, nil, true, ""},
		{"historical future", RequiredHistoricalDate, url.Values{"f": {"02 Jun 2024"}}, nil, false, msgFutureDate},
		{"historical blank", BlankableHistoricalDate, url.Values{"f": {""}}, nil, true, ""},
		{"date in range", RequiredDateWithinRange, url.Values{"f": {"2024-03-01"}}, withOptions("2024-01-01", "2024-12-31"), true, ""},
		{"date before range", DateWithinRange, url.Values{"f": {"2023-12-31"}}, withOptions("2024-01-01", "2024-12-31"), false, "Must be between 2024-01-01 and 2024-12-31."},

		{"time", RequiredTime, url.Values{"f": {"09:30"}}, nil, true, ""},
		{"time bad", RequiredTime, url.Values{"f": {"9:30"}}, nil, false, msgTime},
		{"time optional bad", Time, url.Values{"f": {"930"}}, nil, false, msgTimeOrBlank},

		{"taxon known", RequiredTaxon, url.Values{"f": {"Gymnorhina tibicen"}}, nil, true, ""},
		{"taxon unknown", Taxon, url.Values{"f": {"Dodo"}}, nil, false, msgUnknownTaxon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(fakeTaxa{"gymnorhina tibicen": true})
			got, err := v.Validate(context.Background(), tt.params, tt.typ, "f", tt.attr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantMsg == "" {
				assert.Empty(t, v.ErrorMap())
			} else {
				assert.Equal(t, map[string]string{"f": tt.wantMsg}, v.ErrorMap())
			}
		})
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()
	v := New(fakeTaxa{})

	_, err := v.Validate(context.Background(), url.Values{}, "COLOUR", "f", nil)
	assert.ErrorIs(t, err, ErrUnknownValidationType)

	_, err = v.Validate(context.Background(), url.Values{"f": {"boom"}}, Taxon, "f", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, database.ErrNotFound)

	_, err = v.Validate(context.Background(), url.Values{"f": {"x"}}, Regex, "f", withOptions("(unclosed"))
	assert.Error(t, err)
}

func TestNilTaxonLookupAcceptsAnyName(t *testing.T) {
	t.Parallel()
	ok, err := New(nil).Validate(context.Background(), url.Values{"f": {"Dodo"}}, RequiredTaxon, "f", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidatePropertyHidden(t *testing.T) {
	t.Parallel()
	v := New(nil)

	ok, err := v.ValidateProperty(context.Background(), url.Values{}, RequiredInteger, "number", nil, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v.Errors())

	ok, err = v.ValidateProperty(context.Background(), url.Values{}, RequiredInteger, "number", nil, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckSortsErrorsByKey(t *testing.T) {
	t.Parallel()
	weather := withOptions("1", "5")
	params := url.Values{
		"when":        {"yesterday"},
		"attribute_9": {"7"},
		"latitude":    {"-31.9"},
	}
	rules := []models.FieldRule{
		{Key: "when", Type: string(RequiredDate)},
		{Key: "number", Type: string(RequiredPositiveInt)},
		{Key: "latitude", Type: string(RequiredDegLatitude)},
		{Key: "attribute_9", Type: string(IntegerRange), AttributeID: &weather.ID},
		{Key: "notes", Type: string(RequiredNonblankString), Hidden: true},
	}

	res, err := New(nil).Check(context.Background(), params, rules, map[int64]*models.Attribute{weather.ID: weather})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []models.FieldError{
		{Key: "attribute_9", Message: "Must be between 1 and 5 or blank."},
		{Key: "number", Message: msgRequired},
		{Key: "when", Message: msgDate},
	}, res.Errors)

	_, err = New(nil).Check(context.Background(), params, []models.FieldRule{{Key: "x", Type: "NOPE"}}, nil)
	assert.ErrorIs(t, err, ErrUnknownValidationType)
}
