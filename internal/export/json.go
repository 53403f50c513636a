// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

// FlattenDepth is how far associations are expanded in JSON output.
const FlattenDepth = 2

// JSONSink writes a single JSON array of flattened records. Elements are
// comma-joined across batches; the closing bracket is written by Close.
type JSONSink struct {
	w     *bufio.Writer
	count int
}

// NewJSONSink starts the array.
func NewJSONSink(w io.Writer) *JSONSink {
	s := &JSONSink{w: bufio.NewWriter(w)}
	_ = s.w.WriteByte('[') // errors resurface on Flush
	return s
}

func (s *JSONSink) WriteBatch(_ context.Context, records []*models.Record) error {
	for _, r := range records {
		data, err := json.Marshal(r.Flatten(FlattenDepth))
		if err != nil {
			return fmt.Errorf("encode record %d: %w", r.ID, err)
		}
		if s.count > 0 {
			if err := s.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := s.w.Write(data); err != nil {
			return err
		}
		s.count++
	}
	return nil
}

func (s *JSONSink) Flush() error {
	return s.w.Flush()
}

// Count returns the number of elements written.
func (s *JSONSink) Count() int {
	return s.count
}

func (s *JSONSink) Close() error {
	if err := s.w.WriteByte(']'); err != nil {
		return err
	}
	return s.w.Flush()
}
