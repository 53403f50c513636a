// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gaiaresources/bdrs-review/internal/models"
	"github.com/gaiaresources/bdrs-review/internal/review"
)

func fptr(f float64) *float64 { return &f }

var (
	birds   = &models.Survey{ID: 1, Name: "Backyard Birds"}
	frogs   = &models.Survey{ID: 2, Name: "Frog Watch"}
	magpie  = &models.Species{ID: 1, ScientificName: "Gymnorhina tibicen", CommonName: "Australian Magpie"}
	alice   = &models.User{ID: 1, Login: "alice", FirstName: "Alice", LastName: "Nguyen"}
	weather = &models.Attribute{ID: 1, Name: "Weather"}
)

// testRecords returns n hydrated records; every third one has no coordinates.
func testRecords(n int) []*models.Record {
	out := make([]*models.Record, 0, n)
	for i := 1; i <= n; i++ {
		r := &models.Record{
			ID:         int64(i),
			SurveyID:   birds.ID,
			Survey:     birds,
			UserID:     alice.ID,
			User:       alice,
			When:       time.Date(2024, 3, i%28+1, 9, 30, 0, 0, time.UTC),
			CreatedAt:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Visibility: models.VisibilityPublic,
			Notes:      fmt.Sprintf("note, %d", i),
		}
		if i%2 == 0 {
			r.SurveyID, r.Survey = frogs.ID, frogs
		} else {
			r.SpeciesID, r.Species = &magpie.ID, magpie
		}
		if i%3 != 0 {
			r.Latitude, r.Longitude = fptr(-31.96), fptr(115.84)
		}
		if i == 1 {
			r.AttributeValues = []models.AttributeValue{{AttributeID: weather.ID, AttributeName: "Weather", StringValue: "Sunny"}}
		}
		out = append(out, r)
	}
	return out
}

type sliceCursor struct {
	records []*models.Record
	pos     int
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.records) {
		return false
	}
	c.pos++
	return true
}
func (c *sliceCursor) Record() *models.Record { return c.records[c.pos-1] }
func (c *sliceCursor) Err() error             { return nil }

type noopSession struct{}

func (noopSession) Hydrate(context.Context, []*models.Record) error { return nil }
func (noopSession) Clear()                                          {}

func streamFunc(records []*models.Record, batch int) StreamFunc {
	return func(ctx context.Context, format string, sink review.Sink) (review.Stats, error) {
		return review.Streamer{BatchSize: batch, Format: format}.Stream(ctx, &sliceCursor{records: records}, noopSession{}, sink)
	}
}

func render(t *testing.T, format string, records []*models.Record, batch int) []byte {
	t.Helper()
	var buf bytes.Buffer
	opts := Options{Surveys: []*models.Survey{birds, frogs}, Attributes: []*models.Attribute{weather}}
	require.NoError(t, Write(context.Background(), &buf, "records", []string{format}, opts, streamFunc(records, batch)))
	return buf.Bytes()
}

func TestOutputIndependentOfBatchSize(t *testing.T) {
	t.Parallel()
	records := testRecords(23)

	for _, format := range []string{review.FormatCSV, review.FormatJSON, review.FormatKML} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()
			reference := render(t, format, records, 1)
			for _, b := range []int{2, 5, 23, 50} {
				assert.Equal(t, string(reference), string(render(t, format, records, b)), "batch size %d", b)
			}
		})
	}
}

func TestCSVSink(t *testing.T) {
	t.Parallel()

	out := render(t, review.FormatCSV, testRecords(3), 2)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	header := rows[0]
	assert.Equal(t, "Record ID", header[0])
	assert.Equal(t, "Weather", header[len(header)-1])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Backyard Birds", first[1])
	assert.Equal(t, "Gymnorhina tibicen", first[2])
	assert.Equal(t, "Alice Nguyen", first[6])
	assert.Equal(t, "2024-03-02", first[7])
	assert.Equal(t, "09:30", first[8])
	assert.Equal(t, "-31.96", first[9])
	assert.Equal(t, "note, 1", first[12])
	assert.Equal(t, "Sunny", first[len(first)-1])

	third := rows[3]
	assert.Equal(t, "", third[9], "no latitude")
	assert.Equal(t, "", third[len(third)-1], "no weather")
}

func TestJSONSink(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[]", string(render(t, review.FormatJSON, nil, 5)))

	out := render(t, review.FormatJSON, testRecords(2), 1)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 2)

	keys := make([]string, 0, len(decoded[0]))
	for k := range decoded[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, models.RecordJSONProperties, keys)
	assert.Equal(t, "POINT(115.84 -31.96)", decoded[0]["geometry"])

	species, ok := decoded[0]["species"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Gymnorhina tibicen", species["scientificName"])
	assert.NotContains(t, species, "id")
	assert.Nil(t, decoded[1]["species"])
}

type kmlDoc struct {
	XMLName  xml.Name `xml:"kml"`
	Document struct {
		Name       string `xml:"name"`
		Placemarks []struct {
			ID    string    `xml:"id,attr"`
			Name  string    `xml:"name"`
			Data  []kmlData `xml:"ExtendedData>Data"`
			Point struct {
				Coordinates string `xml:"coordinates"`
			} `xml:"Point"`
		} `xml:"Placemark"`
	} `xml:"Document"`
}

func TestKMLSink(t *testing.T) {
	t.Parallel()

	out := render(t, review.FormatKML, testRecords(6), 4)
	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))

	var doc kmlDoc
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Equal(t, DefaultKMLTitle, doc.Document.Name)
	// records 3 and 6 have no coordinates
	require.Len(t, doc.Document.Placemarks, 4)

	pm := doc.Document.Placemarks[0]
	assert.Equal(t, "record-1", pm.ID)
	assert.Equal(t, "Gymnorhina tibicen", pm.Name)
	assert.Equal(t, "115.84,-31.96", pm.Point.Coordinates)

	data := make(map[string]string)
	for _, d := range pm.Data {
		data[d.Name] = d.Value
	}
	assert.Equal(t, "1", data["recordId"])
	assert.Equal(t, "Backyard Birds", data["survey"])
	assert.Equal(t, "Alice Nguyen", data["owner"])
	assert.Equal(t, "Sunny", data["Weather"])
	assert.Len(t, data["geohash"], 12)

	assert.Equal(t, "Record 2", doc.Document.Placemarks[1].Name)
}

func TestXLSXSink(t *testing.T) {
	t.Parallel()

	out := render(t, review.FormatXLSX, testRecords(5), 2)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{RecordsSheet, "Backyard Birds", "Frog Watch"}, f.GetSheetList())

	all, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "Record ID", all[0][0])

	birdRows, err := f.GetRows("Backyard Birds")
	require.NoError(t, err)
	assert.Len(t, birdRows, 4) // header plus records 1, 3, 5

	frogRows, err := f.GetRows("Frog Watch")
	require.NoError(t, err)
	assert.Len(t, frogRows, 3)
}

func TestUniqueSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{"records": true}
	assert.Equal(t, "records (2)", uniqueSheetName("records", used))
	assert.Equal(t, "Birds_Frogs", uniqueSheetName("Birds/Frogs", used))
	assert.Equal(t, "__", uniqueSheetName(" [] ", map[string]bool{}))
	assert.Equal(t, "Survey", uniqueSheetName("  ", map[string]bool{}))

	long := uniqueSheetName("A survey name that is much too long for a sheet", used)
	assert.Len(t, long, 31)
	again := uniqueSheetName("A survey name that is much too long for a sheet", used)
	assert.Len(t, again, 31)
	assert.NotEqual(t, long, again)
}

func TestReportSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink, err := NewReportSink(&buf, models.Report{ID: 3, Name: "Species", Kind: models.ReportSpeciesSummary})
	require.NoError(t, err)

	records := testRecords(5)
	records[0].Number = new(int64)
	*records[0].Number = 4
	_, err = review.Streamer{BatchSize: 2}.Stream(context.Background(), &sliceCursor{records: records}, noopSession{}, sink)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	var result ReportResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, 5, result.RecordCount)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, ReportRow{Label: "Gymnorhina tibicen", Detail: "Australian Magpie", Records: 3, Individuals: 6}, result.Rows[0])
	assert.Equal(t, ReportRow{Label: "Unidentified", Records: 2, Individuals: 2}, result.Rows[1])

	_, err = NewReportSink(io.Discard, models.Report{Kind: "pie_chart"})
	assert.ErrorIs(t, err, ErrUnknownReportKind)
}

func TestWriteZip(t *testing.T) {
	t.Parallel()

	formats := []string{review.FormatCSV, review.FormatJSON}
	d := Describe("records", formats)
	assert.Equal(t, Download{Filename: "records.zip", ContentType: ZipContentType}, d)
	assert.Equal(t, Download{Filename: "records.kml", ContentType: ContentType(review.FormatKML)}, Describe("records", []string{"kml"}))

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, "records", formats, Options{}, streamFunc(testRecords(3), 2)))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "records.csv", zr.File[0].Name)
	assert.Equal(t, "records.json", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
}

func TestNewSinkUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := NewSink("pdf", io.Discard, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
