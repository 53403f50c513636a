// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

/*
Package main is the entry point for the BDRS review server.

The server exposes faceted review, streamed export and reporting over the
records of a Biological Data Recording System, plus the supporting location,
content, import and record validation endpoints.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("bdrs-review")
	├── DataSupervisor ("data-layer")
	│   └── session-gc (badger value-log GC, persistent sessions only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-router (records.imported -> facet option cache invalidation)
	└── APISupervisor ("api-layer")
	    └── http-server (chi router under /api/v1)

Component initialization order:

 1. Configuration: koanf v2 with defaults, optional YAML file and env vars
 2. Logging: zerolog with JSON or console output
 3. Database: DuckDB record store, schema created on open
 4. Authorization: casbin role policy, embedded or from POLICY_PATH
 5. Session store: badger, on disk or in memory
 6. Event bus: watermill gochannel pub/sub
 7. Review service, facet registry and import registry
 8. Supervisor tree and HTTP server

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for the
configured timeout, then the session store and database are closed.

# Example Usage

	export DUCKDB_PATH=/var/lib/bdrs/records.duckdb
	export SESSION_STORE_PATH=/var/lib/bdrs/sessions
	export CORS_ORIGINS=https://bdrs.example.org
	./bdrs-review

Swagger UI is served at /swagger/index.html and metrics at /metrics.
*/
package main
