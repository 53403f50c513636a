// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/geo"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// DefaultKMLTitle names the document when no title is given.
const DefaultKMLTitle = "BDRS Records"

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPlacemark struct {
	XMLName     xml.Name  `xml:"Placemark"`
	ID          string    `xml:"id,attr"`
	Name        string    `xml:"name"`
	Description string    `xml:"description,omitempty"`
	Data        []kmlData `xml:"ExtendedData>Data"`
	Point       *kmlPoint `xml:"Point"`
}

// KMLSink writes a KML document with one Placemark per located record.
// Records without coordinates are skipped.
type KMLSink struct {
	enc     *xml.Encoder
	written int
}

// NewKMLSink writes the document header.
func NewKMLSink(w io.Writer, title string) (*KMLSink, error) {
	if title == "" {
		title = DefaultKMLTitle
	}
	enc := xml.NewEncoder(w)
	header := []xml.Token{
		xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)},
		xml.StartElement{Name: xml.Name{Local: "kml"}, Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: kmlNamespace}}},
		xml.StartElement{Name: xml.Name{Local: "Document"}},
	}
	for _, tok := range header {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, fmt.Errorf("write kml header: %w", err)
		}
	}
	if err := enc.EncodeElement(title, xml.StartElement{Name: xml.Name{Local: "name"}}); err != nil {
		return nil, fmt.Errorf("write kml header: %w", err)
	}
	return &KMLSink{enc: enc}, nil
}

func (s *KMLSink) WriteBatch(_ context.Context, records []*models.Record) error {
	for _, r := range records {
		if !r.HasPoint() {
			continue
		}
		if err := s.enc.Encode(placemark(r)); err != nil {
			return fmt.Errorf("write placemark for record %d: %w", r.ID, err)
		}
		s.written++
	}
	return nil
}

func (s *KMLSink) Flush() error {
	return s.enc.Flush()
}

// Placemarks returns the number of placemarks written.
func (s *KMLSink) Placemarks() int {
	return s.written
}

func (s *KMLSink) Close() error {
	for _, name := range []string{"Document", "kml"} {
		if err := s.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
			return fmt.Errorf("write kml footer: %w", err)
		}
	}
	return s.enc.Flush()
}

func placemark(r *models.Record) kmlPlacemark {
	lat, lon := *r.Latitude, *r.Longitude
	pm := kmlPlacemark{
		ID:   "record-" + strconv.FormatInt(r.ID, 10),
		Name: "Record " + strconv.FormatInt(r.ID, 10),
		Point: &kmlPoint{
			Coordinates: strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64),
		},
	}
	if r.Species != nil && r.Species.ScientificName != "" {
		pm.Name = r.Species.ScientificName
		pm.Description = r.Species.CommonName
	}

	add := func(name, value string) {
		if value != "" {
			pm.Data = append(pm.Data, kmlData{Name: name, Value: value})
		}
	}
	add("recordId", strconv.FormatInt(r.ID, 10))
	if r.Survey != nil {
		add("survey", r.Survey.Name)
	}
	if r.CensusMethod != nil {
		add("censusMethod", r.CensusMethod.Type)
	}
	if r.User != nil {
		add("owner", r.User.Name())
	}
	add("when", r.When.UTC().Format(time.RFC3339))
	if r.Number != nil {
		add("number", strconv.FormatInt(*r.Number, 10))
	}
	add("geohash", geo.Geohash(lat, lon))
	for _, v := range r.AttributeValues {
		add(v.AttributeName, attributeText(v))
	}
	return pm
}
