// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package testinfra provides shared test infrastructure for packages that
// need a populated record store.
//
// DuckDB runs in-process, so every test gets a fresh in-memory database
// instead of a container:
//
//	func TestReview(t *testing.T) {
//	    db := testinfra.NewDB(t)
//	    fx := testinfra.Seed(t, db)
//
//	    n, err := db.CountRecords(ctx, database.RecordQuery{Viewer: database.Viewer{SeeAll: true}})
//	    // n == len(fx.Records)
//	}
//
// The seeded data set is documented on Seed. Tests that assert on counts or
// ordering depend on it, so extend it by appending rather than reordering.
package testinfra
