// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

/*
Package config provides configuration loading and validation for the BDRS
review service.

# Configuration Sources

Configuration is layered with koanf; each layer overrides the previous one:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, config.yaml, /etc/bdrs/config.yaml)
 3. Environment variables, mapped through an explicit table

Unmapped environment variables are ignored.

# Environment Variables

Database:
  - DUCKDB_PATH: database file path (default: /data/bdrs.duckdb)
  - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
  - DUCKDB_THREADS: worker threads, 0 uses NumCPU
  - DUCKDB_MAX_CONNS: connection pool size, 0 uses 2*NumCPU (minimum 2)

Server:
  - HTTP_HOST, HTTP_PORT (default 8080), HTTP_TIMEOUT, ENVIRONMENT

Review API:
  - API_DEFAULT_PAGE_SIZE (default 20)
  - API_MAX_PAGE_SIZE (default 500)
  - RESULTS_BATCH_SIZE: export cursor batch size (default 50)

Security:
  - CORS_ORIGINS: comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - POLICY_PATH: optional casbin policy CSV replacing the embedded one

Session store (KML parameters):
  - SESSION_STORE_PATH, SESSION_IN_MEMORY, SESSION_TTL, SESSION_GC_INTERVAL

Facets:
  - FACET_OPTION_CACHE_TTL

Survey:
  - DEFAULT_SURVEY_ID: fallback for the survey render redirect

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
