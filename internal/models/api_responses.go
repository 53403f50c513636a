// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package models

import (
	"time"
)

// APIResponse is the envelope for every JSON endpoint that is not a raw export.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "error",
//	  "error": {"code": "MISSING_PARAMETER", "message": "reportId is required"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response timing and cache information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes:
//   - VALIDATION_ERROR: a parameter failed validation
//   - MISSING_PARAMETER: a required parameter was absent
//   - NOT_FOUND: the addressed entity does not exist
//   - UNAUTHORIZED: no viewer could be resolved
//   - FORBIDDEN: the viewer's role does not allow the action
//   - DATABASE_ERROR: the record store failed
//   - EXPORT_ERROR: an export sink failed before any output was written
//   - RATE_LIMITED: the client exceeded its request budget
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeDatabase         = "DATABASE_ERROR"
	ErrCodeExport           = "EXPORT_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// HealthStatus is returned by the readiness probe.
type HealthStatus struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	DatabaseConnected bool      `json:"database_connected"`
	SessionStoreOpen  bool      `json:"session_store_open"`
	Uptime            float64   `json:"uptime"`
	Timestamp         time.Time `json:"timestamp"`
}
