// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package geo wraps the orb geometry library for the WKT handling the review
// service needs: parsing, validity checks, envelope unions, point-in-area
// tests and geohashes.
package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// InvalidGeometryMessage is reported for self-intersecting polygons.
const InvalidGeometryMessage = "Geometry is invalid. Note that self intersecting polygons are not allowed."

// ErrEmptyGeometry is returned when an operation needs at least one geometry.
var ErrEmptyGeometry = errors.New("geo: no geometry")

// Parse decodes a WKT string.
func Parse(s string) (orb.Geometry, error) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("unable to parse WKT: %w", err)
	}
	return g, nil
}

// Format encodes a geometry as WKT.
func Format(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// Validation is the outcome of Validate.
type Validation struct {
	Valid   bool
	Message string
}

// Validate parses s and checks that every polygon ring is closed and simple.
// Empty input is invalid with an empty message.
func Validate(s string) Validation {
	if strings.TrimSpace(s) == "" {
		return Validation{}
	}
	g, err := Parse(s)
	if err != nil {
		return Validation{Message: err.Error()}
	}
	if !IsSimple(g) {
		return Validation{Message: InvalidGeometryMessage}
	}
	return Validation{Valid: true}
}

// IsSimple reports whether every polygon ring in g is free of self intersections.
// Non-areal geometries are always simple.
func IsSimple(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon:
		for _, ring := range v {
			if !ringIsSimple(ring) {
				return false
			}
		}
	case orb.MultiPolygon:
		for _, p := range v {
			if !IsSimple(p) {
				return false
			}
		}
	case orb.Collection:
		for _, c := range v {
			if !IsSimple(c) {
				return false
			}
		}
	}
	return true
}

// ringIsSimple checks every pair of non-adjacent edges for an intersection.
func ringIsSimple(ring orb.Ring) bool {
	n := len(ring)
	if n < 4 || !ring.Closed() {
		return false
	}
	edges := n - 1
	for i := 0; i < edges; i++ {
		a1, a2 := ring[i], ring[i+1]
		for j := i + 1; j < edges; j++ {
			// adjacent edges share an endpoint; so do the first and last
			if j == i+1 || (i == 0 && j == edges-1) {
				continue
			}
			if segmentsIntersect(a1, a2, ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}

func orientation(p, q, r orb.Point) int {
	v := (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func onSegment(p, q, r orb.Point) bool {
	return q[0] <= max(p[0], r[0]) && q[0] >= min(p[0], r[0]) &&
		q[1] <= max(p[1], r[1]) && q[1] >= min(p[1], r[1])
}

func segmentsIntersect(p1, q1, p2, q2 orb.Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}
	return (o1 == 0 && onSegment(p1, p2, q1)) ||
		(o2 == 0 && onSegment(p1, q2, q1)) ||
		(o3 == 0 && onSegment(p2, p1, q2)) ||
		(o4 == 0 && onSegment(p2, q1, q2))
}

// EnvelopeUnion returns the union of the bounding boxes of geoms. A degenerate
// union collapses to a point.
func EnvelopeUnion(geoms []orb.Geometry) (orb.Geometry, error) {
	if len(geoms) == 0 {
		return nil, ErrEmptyGeometry
	}
	bound := geoms[0].Bound()
	for _, g := range geoms[1:] {
		bound = bound.Union(g.Bound())
	}
	if bound.Min.Equal(bound.Max) {
		return bound.Min, nil
	}
	return bound.ToPolygon(), nil
}

// Contains reports whether area covers the point. Only areal geometries
// contain anything.
func Contains(area orb.Geometry, p orb.Point) bool {
	switch a := area.(type) {
	case orb.Polygon:
		return planar.PolygonContains(a, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(a, p)
	case orb.Bound:
		return a.Contains(p)
	case orb.Ring:
		return planar.RingContains(a, p)
	case orb.Collection:
		for _, g := range a {
			if Contains(g, p) {
				return true
			}
		}
	}
	return false
}

// Geohash returns the 12 character geohash of a coordinate.
func Geohash(lat, lon float64) string {
	return geohash.Encode(lat, lon)
}
