// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// CSVSink writes one header row and one row per record.
type CSVSink struct {
	w    *csv.Writer
	cols columns
}

// NewCSVSink writes the header for the fixed columns plus attrs.
func NewCSVSink(w io.Writer, attrs []*models.Attribute) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w), cols: newColumns(attrs)}
	if err := s.w.Write(s.cols.header()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return s, nil
}

func (s *CSVSink) WriteBatch(_ context.Context, records []*models.Record) error {
	for _, r := range records {
		cells := s.cols.cells(r)
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = text(c)
		}
		if err := s.w.Write(row); err != nil {
			return fmt.Errorf("write csv row for record %d: %w", r.ID, err)
		}
	}
	return nil
}

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	return s.Flush()
}
