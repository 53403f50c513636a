// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package session keeps per-browser review state between requests.
//
// The map view posts its facet selection once and then fetches KML
// repeatedly without parameters, so the selection is stored under the
// caller's session id until it is cleared or expires.
package session

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session holds no stored parameters.
var ErrNotFound = errors.New("session parameters not found")

// DefaultCookieName carries the session id.
const DefaultCookieName = "BDRS_SESSION"

// Store persists KML request parameters per session.
type Store interface {
	SaveParams(ctx context.Context, sessionID string, params url.Values) error
	LoadParams(ctx context.Context, sessionID string) (url.Values, error)
	ClearParams(ctx context.Context, sessionID string) error
	Close() error
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func paramsKey(sessionID string) []byte {
	return []byte("kml_params:" + sessionID)
}
