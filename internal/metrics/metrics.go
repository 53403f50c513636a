// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package metrics registers the Prometheus collectors for the review service.
// Collectors are created with promauto and exposed at /metrics by promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bdrs_query_duration_seconds",
			Help:    "Duration of record store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdrs_query_errors_total",
			Help: "Total number of record store query errors",
		},
		[]string{"operation"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Export Metrics
	ExportBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdrs_export_batches_total",
			Help: "Total number of record batches flushed to export sinks",
		},
		[]string{"format"},
	)

	ExportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdrs_export_records_total",
			Help: "Total number of records written to export sinks",
		},
		[]string{"format"},
	)

	SessionClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdrs_session_clears_total",
			Help: "Total number of identity map clears between export batches",
		},
	)

	// Import Metrics
	ImportEntities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdrs_import_entities_total",
			Help: "Total number of imported entity snapshots",
		},
		[]string{"kind", "result"},
	)

	// Facet option cache
	FacetCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdrs_facet_cache_hits_total",
			Help: "Total number of facet option cache hits",
		},
	)

	FacetCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdrs_facet_cache_misses_total",
			Help: "Total number of facet option cache misses",
		},
	)
)

// RecordDBQuery records a query duration and counts the failure when err is non-nil.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordExportBatch counts one flushed batch of n records for format.
func RecordExportBatch(format string, n int) {
	ExportBatches.WithLabelValues(format).Inc()
	ExportRecords.WithLabelValues(format).Add(float64(n))
}

// RecordSessionClear counts one identity map clear.
func RecordSessionClear() {
	SessionClears.Inc()
}

// RecordImport counts one imported snapshot. result is "ok" or "error".
func RecordImport(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ImportEntities.WithLabelValues(kind, result).Inc()
}

// RecordFacetCache counts a facet option cache lookup.
func RecordFacetCache(hit bool) {
	if hit {
		FacetCacheHits.Inc()
	} else {
		FacetCacheMisses.Inc()
	}
}
