// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package main provides the BDRS review HTTP server
//
// @title BDRS Review API
// @version 1.0
// @description Faceted review, export and reporting over Biological Data Recording System records.
// @description
// @description ## Identity
// @description
// @description Requests act as the user whose registration key is sent in the
// @description `X-BDRS-Ident` header or the `ident` parameter. Without one the
// @description caller browses anonymously and only sees public, unheld records.
// @description
// @description ## Error Responses
// @description
// @description All JSON error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "error": {"code": "MISSING_PARAMETER", "message": "reportId is required"},
// @description   "metadata": {"timestamp": "2026-03-01T09:30:00Z"}
// @description }
// @description ```
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey Ident
// @in header
// @name X-BDRS-Ident
// @description User registration key.
//
// @tag.name Review
// @tag.description Advanced review, my sightings, downloads and reports
//
// @tag.name Location
// @tag.description Location web service
//
// @tag.name Survey
// @tag.description Survey contribution redirect
//
// @tag.name Content
// @tag.description Site content store
//
// @tag.name Import
// @tag.description Entity snapshot import
//
// @tag.name Record
// @tag.description Record form validation
//
// @tag.name Health
// @tag.description Liveness and readiness probes
package main
