// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

const readinessTimeout = 2 * time.Second

// HealthLive reports that the process is serving.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady checks the record store.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: h.db.Ping(ctx) == nil,
		SessionStoreOpen:  h.sessions != nil,
		Uptime:            time.Since(h.startTime).Seconds(),
		Timestamp:         time.Now().UTC(),
	}
	if !status.DatabaseConnected {
		status.Status = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   statusError,
			Data:     status,
			Metadata: models.Metadata{Timestamp: status.Timestamp},
			Error:    &models.APIError{Code: models.ErrCodeDatabase, Message: "Database is not reachable"},
		})
		return
	}
	respondSuccess(w, status, start)
}
