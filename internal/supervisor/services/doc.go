// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package services adapts server components to suture.Service. Each
// wrapper turns a component's own lifecycle (ListenAndServe, Run/Close, a
// periodic job) into Serve(ctx) and names itself through fmt.Stringer so
// supervisor events say which service restarted.
package services
