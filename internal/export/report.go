// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// ErrUnknownReportKind is returned for a report kind with no renderer.
var ErrUnknownReportKind = errors.New("unknown report kind")

// ReportRow is one line of a summary report.
type ReportRow struct {
	Label       string `json:"label"`
	Detail      string `json:"detail,omitempty"`
	Records     int    `json:"records"`
	Individuals int64  `json:"individuals"`
}

// ReportResult is the rendered report body.
type ReportResult struct {
	Report      models.Report `json:"report"`
	RecordCount int           `json:"recordCount"`
	Rows        []ReportRow   `json:"rows"`
}

// ReportSink aggregates records into a species or survey summary and writes
// the JSON result on Close.
type ReportSink struct {
	w      io.Writer
	report models.Report
	key    func(*models.Record) (label, detail string)
	rows   map[string]*ReportRow
	total  int
}

// NewReportSink creates the sink for report.
func NewReportSink(w io.Writer, report models.Report) (*ReportSink, error) {
	s := &ReportSink{w: w, report: report, rows: make(map[string]*ReportRow)}
	switch report.Kind {
	case models.ReportSpeciesSummary:
		s.key = speciesKey
	case models.ReportSurveySummary:
		s.key = surveyKey
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportKind, report.Kind)
	}
	return s, nil
}

func speciesKey(r *models.Record) (string, string) {
	if r.Species == nil {
		return "Unidentified", ""
	}
	return r.Species.ScientificName, r.Species.CommonName
}

func surveyKey(r *models.Record) (string, string) {
	if r.Survey == nil {
		return fmt.Sprintf("Survey %d", r.SurveyID), ""
	}
	return r.Survey.Name, ""
}

func (s *ReportSink) WriteBatch(_ context.Context, records []*models.Record) error {
	for _, r := range records {
		label, detail := s.key(r)
		row, ok := s.rows[label]
		if !ok {
			row = &ReportRow{Label: label, Detail: detail}
			s.rows[label] = row
		}
		row.Records++
		if r.Number != nil {
			row.Individuals += *r.Number
		} else {
			row.Individuals++
		}
		s.total++
	}
	return nil
}

// Flush is a no-op; the summary is only known once every record is seen.
func (s *ReportSink) Flush() error {
	return nil
}

// Result returns the summary so far, most recorded first.
func (s *ReportSink) Result() ReportResult {
	rows := make([]ReportRow, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Records != rows[j].Records {
			return rows[i].Records > rows[j].Records
		}
		return rows[i].Label < rows[j].Label
	})
	return ReportResult{Report: s.report, RecordCount: s.total, Rows: rows}
}

func (s *ReportSink) Close() error {
	data, err := json.Marshal(s.Result())
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.w.Write(data)
	return err
}
