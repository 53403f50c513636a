// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"time"

	"github.com/gaiaresources/bdrs-review/internal/authz"
	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/importer"
	"github.com/gaiaresources/bdrs-review/internal/review"
	"github.com/gaiaresources/bdrs-review/internal/session"
)

// Version is reported by the readiness probe. Set at build time.
var Version = "dev"

// Handler holds the dependencies of every endpoint.
//
// Handler methods are split by area:
//   - handlers_review.go: advanced review, my sightings, exports, reports
//   - handlers_location.go: location web service
//   - handlers_survey.go: survey render redirect
//   - handlers_content.go: content store
//   - handlers_import.go: snapshot import
//   - handlers_record.go: record form validation
//   - handlers_health.go: probes
type Handler struct {
	db        *database.DB
	review    *review.Service
	sessions  session.Store
	importer  *importer.Registry
	enforcer  *authz.Enforcer
	config    *config.Config
	startTime time.Time
}

// Deps are the collaborators NewHandler wires together.
type Deps struct {
	DB       *database.DB
	Review   *review.Service
	Sessions session.Store
	Importer *importer.Registry
	Enforcer *authz.Enforcer
	Config   *config.Config
}

// NewHandler creates the handler set.
func NewHandler(d Deps) *Handler {
	return &Handler{
		db:        d.DB,
		review:    d.Review,
		sessions:  d.Sessions,
		importer:  d.Importer,
		enforcer:  d.Enforcer,
		config:    d.Config,
		startTime: time.Now(),
	}
}
