// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

/*
Package api serves the BDRS review endpoints over chi.

Routes live under /api/v1:

	/review/sightings/*        advanced review: view model, JSON, KML, downloads, reports
	/review/mySightings*       the same, restricted to the viewer's records
	/webservice/location/*     location lookups, bookmarks and WKT validation
	/bdrs/user/surveyRenderRedirect
	/content                   content store
	/import                    entity snapshot import (admin)
	/record/validate           record form validation
	/health/live, /health/ready

Every request first resolves a viewer from the X-BDRS-Ident header or the
ident parameter (a user's registration key). Unknown keys browse
anonymously; record visibility is then applied per viewer by the query
builder, and the casbin policy gates the endpoints that need a role.

JSON endpoints answer with the models.APIResponse envelope. Exports stream
the raw file and fall back to the envelope only if they fail before the
first byte is written.
*/
package api
