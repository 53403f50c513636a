// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package export renders streamed review records as downloads.
//
// Every format is a Sink fed by review.Streamer: WriteBatch receives one batch
// of hydrated records, Flush pushes buffered bytes to the writer and Close
// writes any trailer. Output never depends on where batch boundaries fall.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/review"
)

// ErrUnknownFormat is returned for a download format with no sink.
var ErrUnknownFormat = errors.New("unknown export format")

// Sink is a review.Sink with a trailer.
type Sink interface {
	review.Sink
	Close() error
}

// Options configures the sinks that need more than the records.
type Options struct {
	// Title names the KML document.
	Title string
	// Surveys get one XLSX sheet each.
	Surveys []*models.Survey
	// Attributes add CSV and XLSX columns after the fixed ones.
	Attributes []*models.Attribute
}

var contentTypes = map[string]string{
	review.FormatCSV:  "text/csv",
	review.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	review.FormatKML:  "application/vnd.google-earth.kml+xml",
	review.FormatJSON: "application/json",
}

// ZipContentType is used when several formats are bundled.
const ZipContentType = "application/zip"

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NewSink creates the sink for format writing to w.
func NewSink(format string, w io.Writer, opts Options) (Sink, error) {
	switch format {
	case review.FormatCSV:
		return NewCSVSink(w, opts.Attributes)
	case review.FormatXLSX:
		return NewXLSXSink(w, opts.Surveys, opts.Attributes)
	case review.FormatKML:
		return NewKMLSink(w, opts.Title)
	case review.FormatJSON:
		return NewJSONSink(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// StreamFunc runs the review query once into sink.
type StreamFunc func(ctx context.Context, format string, sink review.Sink) (review.Stats, error)

// Download describes the file a format list produces.
type Download struct {
	Filename    string
	ContentType string
}

// Describe returns the download name and type: the single format's file, or
// a zip when more than one format is requested.
func Describe(base string, formats []string) Download {
	if len(formats) == 1 {
		return Download{Filename: base + "." + formats[0], ContentType: ContentType(formats[0])}
	}
	return Download{Filename: base + ".zip", ContentType: ZipContentType}
}

// Write streams every requested format to w. One format is written as is;
// several become entries of a zip archive, with the query run once per entry.
func Write(ctx context.Context, w io.Writer, base string, formats []string, opts Options, stream StreamFunc) error {
	if len(formats) == 1 {
		return writeOne(ctx, w, formats[0], opts, stream)
	}
	return writeZip(ctx, w, base, formats, opts, stream)
}

func writeOne(ctx context.Context, w io.Writer, format string, opts Options, stream StreamFunc) error {
	sink, err := NewSink(format, w, opts)
	if err != nil {
		return err
	}
	if _, err := stream(ctx, format, sink); err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("finish %s export: %w", format, err)
	}
	return nil
}
