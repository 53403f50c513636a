// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// notFound wraps ErrNotFound with the entity and key that were missing.
func notFound(entity string, key interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, key, ErrNotFound)
}

// queryError maps sql.ErrNoRows onto ErrNotFound and wraps everything else.
func queryError(entity string, key interface{}, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity, key)
	}
	return fmt.Errorf("failed to load %s %v: %w", entity, key, err)
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
