// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package database is the record store for BDRS Review.
//
// # Overview
//
// Records, surveys, locations, species, census methods, users, attributes,
// metadata, reports, content and preferences live in a single DuckDB
// database reached through database/sql. Dynamic SQL is built with
// Masterminds/squirrel so facet predicates compose as sq.Sqlizer values.
//
// # Files
//
//   - database.go: connection lifecycle (open, pool, checkpoint, close)
//   - schema.go: sequences, tables and indexes
//   - record_query.go: RecordQuery, the facet/search/sort/visibility query builder
//   - records.go: record inserts, counts, pages and the streaming RecordCursor
//   - session.go: the per-request identity map used to hydrate record batches
//   - entities.go, attributes.go, locations.go: entity lookups and inserts
//   - content.go, reports.go: key/value content, preferences and reports
//   - facet_counts.go: grouped record counts for facet options
//
// # Visibility
//
// Every record query carries a Viewer. Unless the viewer may see all records,
// results are restricted to the viewer's own records plus public, non-held
// records.
//
// # Testing
//
// Tests run against in-memory DuckDB (Path ":memory:").
package database
