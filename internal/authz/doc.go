// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package authz decides what a BDRS role may do, using Casbin.
//
// Subjects are user roles (models.RoleUser and up) or Anonymous for callers
// without an ident. Roles inherit upwards:
//
//	anonymous < ROLE_USER < ROLE_POWER_USER < ROLE_SUPERVISOR < ROLE_ADMIN
//
// Objects are coarse capabilities rather than URL paths:
//
//	review             read   advanced review, downloads, reports
//	review:mine        read   my sightings
//	records:all        read   bypass record visibility
//	location           read   location web service lookups
//	location:bookmark  write  bookmark a location
//	record             validate   record form validation
//	survey             render     survey form redirect
//	content            read/write
//	import             write
//
// The model and policy are embedded. A policy CSV on disk
// (security.policy_path) replaces the embedded one and is reloaded
// periodically.
package authz
