// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/recordform"
	"github.com/gaiaresources/bdrs-review/internal/validation"
)

const maxValidationBytes = 1 << 20

// ValidateRecord checks posted record form fields against a list of rules.
//
// @Summary Validate record form fields
// @Tags Record
// @Accept json
// @Produce json
// @Param request body models.RecordValidationRequest true "Fields and rules"
// @Success 200 {object} models.APIResponse{data=models.RecordValidationResult}
// @Failure 400 {object} models.APIResponse
// @Router /record/validate [post]
func (h *Handler) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.RecordValidationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValidationBytes))
	if err := dec.Decode(&req); err != nil {
		respondInvalid(w, r, "Request body must be a JSON object")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondValidation(w, r, err)
		return
	}

	ctx := r.Context()
	attrs := make(map[int64]*models.Attribute)
	for _, rule := range req.Rules {
		if rule.AttributeID == nil {
			continue
		}
		if _, ok := attrs[*rule.AttributeID]; ok {
			continue
		}
		a, err := h.db.AttributeByID(ctx, *rule.AttributeID)
		if err != nil {
			respondStoreError(w, r, err, "Attribute not found")
			return
		}
		attrs[a.ID] = a
	}

	params := make(url.Values, len(req.Params))
	for k, v := range req.Params {
		params.Set(k, v)
	}

	res, err := recordform.New(h.db).Check(ctx, params, req.Rules, attrs)
	if errors.Is(err, recordform.ErrUnknownValidationType) {
		respondInvalid(w, r, err.Error())
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Validation failed", err)
		return
	}
	respondSuccess(w, res, start)
}
