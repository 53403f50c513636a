// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"errors"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/validation"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", etag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func etag(data []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return strconv.Quote(strconv.FormatUint(uint64(h.Sum32()), 16))
}

// respondSuccess wraps data in the success envelope. start is when the
// handler began work, for query_time_ms.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: statusSuccess,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError writes the error envelope. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("code", code).
			Str("path", r.URL.Path).
			Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   statusError,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func respondMissing(w http.ResponseWriter, r *http.Request, param string) {
	respondError(w, r, http.StatusBadRequest, models.ErrCodeMissingParameter, param+" is required", nil)
}

func respondInvalid(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, message, nil)
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   statusError,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details},
	})
}

// respondStoreError maps a record store failure: a missing entity is 404,
// anything else is a database error.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, notFound, nil)
		return
	}
	respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "A database error occurred", err)
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int) {
	switch status {
	case http.StatusUnauthorized:
		respondError(w, r, status, models.ErrCodeUnauthorized, "A valid ident is required", nil)
	case http.StatusForbidden:
		respondError(w, r, status, models.ErrCodeForbidden, "Insufficient privileges", nil)
	default:
		respondError(w, r, status, models.ErrCodeInternal, http.StatusText(status), nil)
	}
}
