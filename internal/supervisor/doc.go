// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

/*
Package supervisor runs the long-lived parts of the review server under a
suture v4 supervisor tree:

	bdrs-review
	├── data-layer
	│   └── BadgerGCService (session store value log GC)
	├── messaging-layer
	│   └── EventRouterService (records.imported handlers)
	└── api-layer
	    └── HTTPServerService

Each layer has its own failure accounting, so a router that keeps failing
backs off without taking the HTTP server down with it. Supervisor events are
logged through sutureslog onto the zerolog backed slog handler.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewBadgerGCService(store, cfg.Session.GCInterval))
	tree.AddMessagingService(services.NewEventRouterService(newRouter))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
