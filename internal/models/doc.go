// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package models defines the BDRS domain entities (records, surveys, locations,
// species, census methods, users, attributes, metadata and reports), the
// review view model and the API response envelope.
//
// Entities are plain rows; associations loaded alongside a record (species,
// location, census method, owner, survey) are attached as pointers and may be
// nil when the foreign key is NULL.
package models
