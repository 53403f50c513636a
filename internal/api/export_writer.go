// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// trackingWriter notes whether any body bytes reached the client.
type trackingWriter struct {
	http.ResponseWriter
	written bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.written = true
	}
	return t.ResponseWriter.Write(p)
}

// streamExport writes an export body produced by write. A failure before
// the first byte becomes an EXPORT_ERROR envelope; after that the response
// is already committed and the failure is only logged.
func streamExport(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	}

	tw := &trackingWriter{ResponseWriter: w}
	err := write(tw)
	if err == nil {
		return
	}
	if !tw.written {
		w.Header().Del("Content-Disposition")
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeExport, "Export failed", err)
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Str("content_type", contentType).Msg("Export aborted mid-stream")
}
