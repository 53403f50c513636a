// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package review implements the Advanced Review and My Sightings searches.
//
// A request flows through four steps:
//
//  1. NewReviewRequest reads the paging, sort and search parameters.
//  2. Service.Query builds the facet set and a database.RecordQuery.
//  3. Paginate turns the record count into a clamped page.
//  4. Streamer drains a cursor into a Sink in ResultsBatchSize batches,
//     clearing the per-request session after every batch.
//
// Sort and facet parameters that do not parse are ignored rather than
// reported. Only ResultsPerPage has a hard range (1 to 500).
package review
