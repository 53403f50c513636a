// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// ParamLike filters content keys by a SQL LIKE pattern.
const ParamLike = "like"

// maxContentBytes bounds a single content value.
const maxContentBytes = 1 << 20

// ContentEntry is one content key and value.
type ContentEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetContent returns the value stored under a key.
//
// @Summary Get content
// @Tags Content
// @Produce json
// @Param key path string true "Content key, may contain slashes"
// @Success 200 {object} models.APIResponse{data=ContentEntry}
// @Failure 404 {object} models.APIResponse
// @Router /content/{key} [get]
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key := chi.URLParam(r, "*")
	value, err := h.db.Content(r.Context(), key)
	if err != nil {
		respondStoreError(w, r, err, "Content not found")
		return
	}
	respondSuccess(w, ContentEntry{Key: key, Value: value}, start)
}

// PutContent replaces the value stored under a key with the request body.
//
// @Summary Save content
// @Tags Content
// @Accept plain
// @Produce json
// @Param key path string true "Content key"
// @Success 200 {object} models.APIResponse{data=ContentEntry}
// @Failure 403 {object} models.APIResponse
// @Router /content/{key} [put]
func (h *Handler) PutContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key := chi.URLParam(r, "*")
	if strings.TrimSpace(key) == "" {
		respondMissing(w, r, "key")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBytes))
	if err != nil {
		respondInvalid(w, r, "Content body is too large or unreadable")
		return
	}
	if err := h.db.SaveContent(r.Context(), key, string(body)); err != nil {
		respondStoreError(w, r, err, "Content not found")
		return
	}
	logging.Ctx(r.Context()).Info().Str("key", key).Int("bytes", len(body)).Msg("Content saved")
	respondSuccess(w, ContentEntry{Key: key, Value: string(body)}, start)
}

// ListContentKeys lists every content key, or those matching ?like=.
//
// @Summary List content keys
// @Tags Content
// @Produce json
// @Param like query string false "SQL LIKE pattern, e.g. email/%"
// @Success 200 {object} models.APIResponse{data=[]string}
// @Router /content [get]
func (h *Handler) ListContentKeys(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var (
		keys []string
		err  error
	)
	if like := r.URL.Query().Get(ParamLike); like != "" {
		keys, err = h.db.ContentKeysLike(r.Context(), like)
	} else {
		keys, err = h.db.ContentKeys(r.Context())
	}
	if err != nil {
		respondStoreError(w, r, err, "Content not found")
		return
	}
	respondSuccess(w, keys, start)
}
