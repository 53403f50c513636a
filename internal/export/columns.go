// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"strconv"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// fixedColumns lead every spreadsheet row.
var fixedColumns = []string{
	"Record ID",
	"Survey",
	"Scientific Name",
	"Common Name",
	"Census Method",
	"Location",
	"User",
	"Date",
	"Time",
	"Latitude",
	"Longitude",
	"Number",
	"Notes",
	"Visibility",
}

// columns is the spreadsheet layout: fixed columns then one per attribute name.
type columns struct {
	attributes []string
}

func newColumns(attrs []*models.Attribute) columns {
	var c columns
	seen := make(map[string]bool)
	for _, a := range attrs {
		if a == nil || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		c.attributes = append(c.attributes, a.Name)
	}
	return c
}

func (c columns) header() []string {
	out := make([]string, 0, len(fixedColumns)+len(c.attributes))
	out = append(out, fixedColumns...)
	return append(out, c.attributes...)
}

// cells returns the typed row values. Missing values are nil.
func (c columns) cells(r *models.Record) []interface{} {
	row := []interface{}{
		r.ID,
		nil, nil, nil, nil, nil, nil,
		r.When.Format(time.DateOnly),
		r.When.Format("15:04"),
		nil, nil, nil,
		r.Notes,
		r.Visibility,
	}
	if r.Survey != nil {
		row[1] = r.Survey.Name
	}
	if r.Species != nil {
		row[2] = r.Species.ScientificName
		row[3] = r.Species.CommonName
	}
	if r.CensusMethod != nil {
		row[4] = r.CensusMethod.Type
	}
	if r.Location != nil {
		row[5] = r.Location.Name
	}
	if r.User != nil {
		row[6] = r.User.Name()
	}
	if r.Latitude != nil {
		row[9] = *r.Latitude
	}
	if r.Longitude != nil {
		row[10] = *r.Longitude
	}
	if r.Number != nil {
		row[11] = *r.Number
	}

	values := make(map[string]string, len(r.AttributeValues))
	for _, v := range r.AttributeValues {
		values[v.AttributeName] = attributeText(v)
	}
	for _, name := range c.attributes {
		if v, ok := values[name]; ok {
			row = append(row, v)
		} else {
			row = append(row, nil)
		}
	}
	return row
}

// attributeText renders an attribute value as text.
func attributeText(v models.AttributeValue) string {
	switch {
	case v.StringValue != "":
		return v.StringValue
	case v.NumericValue != nil:
		return strconv.FormatFloat(*v.NumericValue, 'f', -1, 64)
	case v.DateValue != nil:
		return v.DateValue.Format(time.DateOnly)
	}
	return ""
}

// text renders a cell for CSV.
func text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}
