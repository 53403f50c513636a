// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Session  SessionConfig  `koanf:"session"`
	Facets   FacetsConfig   `koanf:"facets"`
	Survey   SurveyConfig   `koanf:"survey"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU

	// MaxOpenConns caps the pool; 0 = 2*NumCPU. Raised to 2 when lower,
	// since a streaming export holds one connection while it hydrates on another.
	MaxOpenConns int `koanf:"max_open_conns"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIConfig holds review paging and export settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// ResultsBatchSize is the number of records read from the cursor between
	// sink flushes and session clears. Shared by every export format.
	ResultsBatchSize int `koanf:"results_batch_size"`
}

// SecurityConfig holds CORS, rate limiting and authorization policy settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// PolicyPath optionally points at a casbin policy CSV. Empty uses the embedded policy.
	PolicyPath string `koanf:"policy_path"`
}

// SessionConfig holds the KML parameter session store settings
type SessionConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval"`
	CookieName string        `koanf:"cookie_name"`
}

// FacetsConfig holds facet option settings
type FacetsConfig struct {
	OptionCacheTTL time.Duration `koanf:"option_cache_ttl"`
}

// SurveyConfig holds survey fallbacks
type SurveyConfig struct {
	// DefaultSurveyID is used when the survey.default preference is not set.
	// Zero means no default.
	DefaultSurveyID int64 `koanf:"default_survey_id"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to each entry.
	Caller bool `koanf:"caller"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
