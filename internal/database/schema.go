// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// sequenced tables get a BIGINT id drawn from <table>_id_seq.
var sequenced = []string{
	"users", "metadata", "surveys", "taxon_groups", "species", "census_methods",
	"locations", "attributes", "attribute_options", "records", "attribute_values", "reports",
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := make([]string, 0, len(sequenced)+16)
	for _, table := range sequenced {
		queries = append(queries, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s_id_seq START 1", table))
	}
	queries = append(queries, tableCreationQueries()...)

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			login TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			registration_key TEXT UNIQUE,
			role TEXT NOT NULL DEFAULT 'ROLE_USER',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			id BIGINT PRIMARY KEY DEFAULT nextval('metadata_id_seq'),
			user_id BIGINT,
			survey_id BIGINT,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS surveys (
			id BIGINT PRIMARY KEY DEFAULT nextval('surveys_id_seq'),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			public BOOLEAN NOT NULL DEFAULT TRUE,
			start_date TIMESTAMP,
			end_date TIMESTAMP,
			renderer_type TEXT NOT NULL DEFAULT 'DEFAULT'
		)`,
		`CREATE TABLE IF NOT EXISTS taxon_groups (
			id BIGINT PRIMARY KEY DEFAULT nextval('taxon_groups_id_seq'),
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS species (
			id BIGINT PRIMARY KEY DEFAULT nextval('species_id_seq'),
			scientific_name TEXT NOT NULL,
			common_name TEXT NOT NULL DEFAULT '',
			taxon_group_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS census_methods (
			id BIGINT PRIMARY KEY DEFAULT nextval('census_methods_id_seq'),
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS locations (
			id BIGINT PRIMARY KEY DEFAULT nextval('locations_id_seq'),
			name TEXT NOT NULL,
			user_id BIGINT,
			survey_id BIGINT,
			latitude DOUBLE,
			longitude DOUBLE,
			wkt TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS attributes (
			id BIGINT PRIMARY KEY DEFAULT nextval('attributes_id_seq'),
			survey_id BIGINT,
			census_method_id BIGINT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type_code TEXT NOT NULL,
			required BOOLEAN NOT NULL DEFAULT FALSE,
			scope TEXT NOT NULL DEFAULT 'SURVEY'
		)`,
		`CREATE TABLE IF NOT EXISTS attribute_options (
			id BIGINT PRIMARY KEY DEFAULT nextval('attribute_options_id_seq'),
			attribute_id BIGINT NOT NULL,
			value TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id BIGINT PRIMARY KEY DEFAULT nextval('records_id_seq'),
			survey_id BIGINT NOT NULL,
			species_id BIGINT,
			location_id BIGINT,
			census_method_id BIGINT,
			user_id BIGINT NOT NULL,
			when_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			latitude DOUBLE,
			longitude DOUBLE,
			number BIGINT,
			notes TEXT NOT NULL DEFAULT '',
			held BOOLEAN NOT NULL DEFAULT FALSE,
			visibility TEXT NOT NULL DEFAULT 'OWNER_ONLY'
		)`,
		`CREATE TABLE IF NOT EXISTS attribute_values (
			id BIGINT PRIMARY KEY DEFAULT nextval('attribute_values_id_seq'),
			record_id BIGINT,
			location_id BIGINT,
			attribute_id BIGINT NOT NULL,
			string_value TEXT NOT NULL DEFAULT '',
			numeric_value DOUBLE,
			date_value TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id BIGINT PRIMARY KEY DEFAULT nextval('reports_id_seq'),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS content (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}
}

// createIndexes covers the columns facets and the visibility filter hit.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_records_survey ON records(survey_id)",
		"CREATE INDEX IF NOT EXISTS idx_records_user ON records(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_records_when ON records(when_date)",
		"CREATE INDEX IF NOT EXISTS idx_records_location ON records(location_id)",
		"CREATE INDEX IF NOT EXISTS idx_attribute_values_record ON attribute_values(record_id)",
		"CREATE INDEX IF NOT EXISTS idx_attribute_options_attribute ON attribute_options(attribute_id)",
		"CREATE INDEX IF NOT EXISTS idx_locations_user ON locations(user_id)",
	}
	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
