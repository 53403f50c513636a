// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/importer"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// maxImportBytes bounds an import request body.
const maxImportBytes = 64 << 20

// ImportFailure is the error detail of a partially applied import.
type ImportFailure struct {
	Result models.ImportResult `json:"result"`
	Reason string              `json:"reason"`
}

// Import recreates a JSON array of entity snapshots. Snapshots are applied
// in order and the import stops at the first failure; earlier entities are
// kept and reported in the error details.
//
// @Summary Import entity snapshots
// @Tags Import
// @Accept json
// @Produce json
// @Param snapshots body []object true "Snapshots, dependencies first"
// @Success 200 {object} models.APIResponse{data=models.ImportResult}
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 422 {object} models.APIResponse
// @Router /import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondInvalid(w, r, "Import body is too large or unreadable")
		return
	}

	result, err := h.importer.ImportAll(r.Context(), body)
	switch {
	case errors.Is(err, importer.ErrNotArray):
		respondInvalid(w, r, err.Error())
		return
	case err != nil:
		respondJSON(w, http.StatusUnprocessableEntity, &models.APIResponse{
			Status:   statusError,
			Data:     ImportFailure{Result: result, Reason: err.Error()},
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error: &models.APIError{
				Code:    models.ErrCodeValidation,
				Message: "Import stopped at an invalid snapshot",
				Details: map[string]interface{}{"imported": result.Imported, "reason": err.Error()},
			},
		})
		return
	}
	respondSuccess(w, result, start)
}
