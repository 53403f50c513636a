// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package models

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Flattened is the JSON-ready map form of an entity.
type Flattened map[string]interface{}

// Properties exposed per entity in flattened JSON. Anything not listed is
// never serialized.
var (
	RecordJSONProperties       = []string{"when", "createdAt", "id", "user", "geometry", "latitude", "longitude", "species", "censusMethod", "survey"}
	SpeciesJSONProperties      = []string{"scientificName", "commonName"}
	UserJSONProperties         = []string{"name"}
	CensusMethodJSONProperties = []string{"type"}
	SurveyJSONProperties       = []string{"id"}
)

func epochMillis(r *Record, prop string) int64 {
	if prop == "when" {
		return r.When.UnixMilli()
	}
	return r.CreatedAt.UnixMilli()
}

// Flatten converts the record to a map restricted to RecordJSONProperties.
// Associations are expanded while depth > 1; at the last level they collapse
// to their id.
func (r *Record) Flatten(depth int) Flattened {
	out := make(Flattened, len(RecordJSONProperties))
	for _, prop := range RecordJSONProperties {
		switch prop {
		case "id":
			out[prop] = r.ID
		case "when", "createdAt":
			out[prop] = epochMillis(r, prop)
		case "latitude":
			out[prop] = floatOrNil(r.Latitude)
		case "longitude":
			out[prop] = floatOrNil(r.Longitude)
		case "geometry":
			out[prop] = r.GeometryWKT()
		case "user":
			if r.User != nil {
				out[prop] = nested(depth, r.User.ID, func() Flattened { return r.User.Flatten() })
			} else {
				out[prop] = r.UserID
			}
		case "species":
			if r.Species != nil {
				out[prop] = nested(depth, r.Species.ID, func() Flattened { return r.Species.Flatten() })
			} else {
				out[prop] = nil
			}
		case "censusMethod":
			if r.CensusMethod != nil {
				out[prop] = nested(depth, r.CensusMethod.ID, func() Flattened { return r.CensusMethod.Flatten() })
			} else {
				out[prop] = nil
			}
		case "survey":
			out[prop] = nested(depth, r.SurveyID, func() Flattened { return Flattened{"id": r.SurveyID} })
		}
	}
	return out
}

func nested(depth int, id int64, expand func() Flattened) interface{} {
	if depth > 1 {
		return expand()
	}
	return id
}

func floatOrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// GeometryWKT returns the record point as WKT, or nil without coordinates.
func (r *Record) GeometryWKT() interface{} {
	if !r.HasPoint() {
		return nil
	}
	return wkt.MarshalString(orb.Point{*r.Longitude, *r.Latitude})
}

// Flatten returns the allow-listed species properties.
func (s *Species) Flatten() Flattened {
	return Flattened{"scientificName": s.ScientificName, "commonName": s.CommonName}
}

// Flatten returns the allow-listed user properties.
func (u *User) Flatten() Flattened {
	return Flattened{"name": u.Name()}
}

// Flatten returns the allow-listed census method properties.
func (c *CensusMethod) Flatten() Flattened {
	return Flattened{"type": c.Type}
}

// Flatten returns every location property; the location web service exposes
// the full row.
func (l *Location) Flatten() Flattened {
	out := Flattened{
		"id":        l.ID,
		"name":      l.Name,
		"latitude":  floatOrNil(l.Latitude),
		"longitude": floatOrNil(l.Longitude),
	}
	if l.WKT != "" {
		out["location"] = l.WKT
	} else if l.Latitude != nil && l.Longitude != nil {
		out["location"] = wkt.MarshalString(orb.Point{*l.Longitude, *l.Latitude})
	}
	if l.UserID != nil {
		out["user"] = *l.UserID
	}
	if l.SurveyID != nil {
		out["survey"] = *l.SurveyID
	}
	return out
}
