// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// RecordsSheet holds every exported record.
const RecordsSheet = "Records"

const maxSheetName = 31

// sheetWriter appends rows to one streamed worksheet.
type sheetWriter struct {
	sw  *excelize.StreamWriter
	row int
}

func newSheetWriter(f *excelize.File, sheet string, header []string) (*sheetWriter, error) {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}
	s := &sheetWriter{sw: sw}
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return s, s.append(cells)
}

func (s *sheetWriter) append(cells []interface{}) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.sw.SetRow(cell, cells)
}

// XLSXSink writes a workbook with a Records sheet plus one sheet per survey.
// Rows are spooled by excelize and the workbook reaches the writer on Close.
type XLSXSink struct {
	w        io.Writer
	file     *excelize.File
	cols     columns
	all      *sheetWriter
	bySurvey map[int64]*sheetWriter
	order    []*sheetWriter
}

// NewXLSXSink prepares the sheets and their header rows.
func NewXLSXSink(w io.Writer, surveys []*models.Survey, attrs []*models.Attribute) (*XLSXSink, error) {
	f := excelize.NewFile()
	s := &XLSXSink{w: w, file: f, cols: newColumns(attrs), bySurvey: make(map[int64]*sheetWriter)}

	fail := func(err error) (*XLSXSink, error) {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to discard workbook")
		}
		return nil, err
	}

	if err := f.SetSheetName(f.GetSheetName(0), RecordsSheet); err != nil {
		return fail(fmt.Errorf("rename default sheet: %w", err))
	}
	header := s.cols.header()
	all, err := newSheetWriter(f, RecordsSheet, header)
	if err != nil {
		return fail(err)
	}
	s.all = all
	s.order = append(s.order, all)

	used := map[string]bool{strings.ToLower(RecordsSheet): true}
	for _, sv := range surveys {
		if sv == nil || s.bySurvey[sv.ID] != nil {
			continue
		}
		name := uniqueSheetName(sv.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return fail(fmt.Errorf("add sheet %q: %w", name, err))
		}
		sheet, err := newSheetWriter(f, name, header)
		if err != nil {
			return fail(err)
		}
		s.bySurvey[sv.ID] = sheet
		s.order = append(s.order, sheet)
	}
	return s, nil
}

func (s *XLSXSink) WriteBatch(_ context.Context, records []*models.Record) error {
	for _, r := range records {
		cells := s.cols.cells(r)
		if err := s.all.append(cells); err != nil {
			return fmt.Errorf("write row for record %d: %w", r.ID, err)
		}
		if sheet, ok := s.bySurvey[r.SurveyID]; ok {
			if err := sheet.append(cells); err != nil {
				return fmt.Errorf("write survey row for record %d: %w", r.ID, err)
			}
		}
	}
	return nil
}

// Flush is a no-op; excelize keeps streamed rows until the workbook is saved.
func (s *XLSXSink) Flush() error {
	return nil
}

func (s *XLSXSink) Close() error {
	defer func() {
		if err := s.file.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to release workbook")
		}
	}()
	for _, sheet := range s.order {
		if err := sheet.sw.Flush(); err != nil {
			return fmt.Errorf("finish sheet: %w", err)
		}
	}
	if err := s.file.Write(s.w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// uniqueSheetName makes a valid worksheet name: no []:*?/\ characters, at
// most 31 characters, unique case-insensitively among used.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Survey"
	}
	clean = truncate(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
