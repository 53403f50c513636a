// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/gaiaresources/bdrs-review/internal/geo"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

type persistFunc func(ctx context.Context, s *snapshot) (int64, error)

type handler struct {
	kind     Kind
	persist  persistFunc
	messages []string
}

func (h *handler) importData(ctx context.Context, raw []byte, ids *IDMap) (int64, error) {
	s := &snapshot{kind: h.kind, raw: raw, ids: ids, h: h}
	old := gjson.GetBytes(raw, IDKey)

	id, err := h.persist(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("import %s %s: %w", h.kind, old.String(), err)
	}
	if old.Exists() {
		ids.Put(h.kind, old.Int(), id)
	}
	return id, nil
}

// snapshot is one decoded import object plus the id map to resolve it with.
type snapshot struct {
	kind Kind
	raw  []byte
	ids  *IDMap
	h    *handler
}

func (s *snapshot) decode(v interface{}) error {
	if err := json.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.kind, err)
	}
	return nil
}

func (s *snapshot) get(path string) gjson.Result {
	return gjson.GetBytes(s.raw, path)
}

func (s *snapshot) notef(format string, args ...interface{}) {
	prefix := fmt.Sprintf("%s %s: ", s.kind, s.get(IDKey).String())
	s.h.messages = append(s.h.messages, prefix+fmt.Sprintf(format, args...))
}

// refID reads a reference as a plain id or an object carrying _id.
func (s *snapshot) refID(path string) (int64, bool) {
	v := s.get(path)
	if v.IsObject() {
		v = v.Get(IDKey)
	}
	if !v.Exists() || v.Type == gjson.Null {
		return 0, false
	}
	return v.Int(), true
}

// required resolves a reference that must point at an imported snapshot.
func (s *snapshot) required(path string, kind Kind) (int64, error) {
	old, ok := s.refID(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s is missing", ErrUnresolvedReference, path)
	}
	id, ok := s.ids.Get(kind, old)
	if !ok {
		return 0, fmt.Errorf("%w: %s %d was not imported", ErrUnresolvedReference, kind, old)
	}
	return id, nil
}

// optional resolves a reference that may be absent. A reference to a
// snapshot that was never imported is dropped with a message.
func (s *snapshot) optional(path string, kind Kind) *int64 {
	old, ok := s.refID(path)
	if !ok {
		return nil
	}
	id, ok := s.ids.Get(kind, old)
	if !ok {
		s.notef("%s %d was not imported, reference dropped", kind, old)
		return nil
	}
	return &id
}

// existing resolves a reference to an imported snapshot if there is one,
// otherwise the id is taken to name a row already in the store.
func (s *snapshot) existing(path string, kind Kind) *int64 {
	old, ok := s.refID(path)
	if !ok {
		return nil
	}
	if id, ok := s.ids.Get(kind, old); ok {
		return &id
	}
	return &old
}

// timeValue reads epoch milliseconds or an RFC3339 / date-only string.
func (s *snapshot) timeValue(path string) (*time.Time, error) {
	v := s.get(path)
	switch v.Type {
	case gjson.Number:
		t := time.UnixMilli(v.Int()).UTC()
		return &t, nil
	case gjson.String:
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(layout, v.String()); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("%s: unrecognised time %q", path, v.String())
	}
	return nil, nil
}

func (s *snapshot) float(path string) *float64 {
	v := s.get(path)
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

func importSurvey(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		sv := models.Survey{
			Name:         s.get("name").String(),
			Description:  s.get("description").String(),
			Active:       s.get("active").Bool(),
			Public:       s.get("public").Bool(),
			RendererType: s.get("rendererType").String(),
		}
		var err error
		if sv.StartDate, err = s.timeValue("startDate"); err != nil {
			return 0, err
		}
		if sv.EndDate, err = s.timeValue("endDate"); err != nil {
			return 0, err
		}
		if sv.RendererType == "" {
			sv.RendererType = models.RendererDefault
		}
		return store.InsertSurvey(ctx, &sv)
	}
}

func importCensusMethod(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		var cm models.CensusMethod
		if err := s.decode(&cm); err != nil {
			return 0, err
		}
		return store.InsertCensusMethod(ctx, &cm)
	}
}

func importMetadata(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		m := models.MetadataEntry{
			Key:      s.get("key").String(),
			Value:    s.get("value").String(),
			UserID:   s.existing("user", KindUser),
			SurveyID: s.optional("survey", KindSurvey),
		}
		if m.Key == "" {
			return 0, fmt.Errorf("metadata has no key")
		}
		return store.InsertMetadata(ctx, &m)
	}
}

func importAttribute(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		a := models.Attribute{
			Name:           s.get("name").String(),
			Description:    s.get("description").String(),
			TypeCode:       s.get("typeCode").String(),
			Required:       s.get("required").Bool(),
			Scope:          s.get("scope").String(),
			SurveyID:       s.optional("survey", KindSurvey),
			CensusMethodID: s.optional("censusMethod", KindCensusMethod),
		}
		if s.get("options").IsArray() {
			s.notef("inline options ignored, import AttributeOption snapshots instead")
		}
		return store.InsertAttribute(ctx, &a)
	}
}

func importAttributeOption(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		attrID, err := s.required("attribute", KindAttribute)
		if err != nil {
			return 0, err
		}
		o := models.AttributeOption{
			AttributeID: attrID,
			Value:       s.get("value").String(),
			Position:    int(s.get("position").Int()),
		}
		return store.InsertAttributeOption(ctx, &o)
	}
}

func importLocation(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		l := models.Location{
			Name:      s.get("name").String(),
			UserID:    s.existing("user", KindUser),
			SurveyID:  s.optional("survey", KindSurvey),
			Latitude:  s.float("latitude"),
			Longitude: s.float("longitude"),
			WKT:       s.get("location").String(),
		}
		if l.WKT != "" {
			g, err := geo.Parse(l.WKT)
			if err != nil {
				return 0, fmt.Errorf("location %q: %w", l.Name, err)
			}
			if l.Latitude == nil || l.Longitude == nil {
				c := g.Bound().Center()
				lon, lat := c.Lon(), c.Lat()
				l.Latitude, l.Longitude = &lat, &lon
			}
		}
		return store.InsertLocation(ctx, &l)
	}
}

func importRecord(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		surveyID, err := s.required("survey", KindSurvey)
		if err != nil {
			return 0, err
		}
		owner := s.existing("user", KindUser)
		if owner == nil {
			return 0, fmt.Errorf("%w: user is missing", ErrUnresolvedReference)
		}
		when, err := s.timeValue("when")
		if err != nil {
			return 0, err
		}
		if when == nil {
			return 0, fmt.Errorf("record has no when")
		}
		r := models.Record{
			SurveyID:       surveyID,
			UserID:         *owner,
			When:           *when,
			LocationID:     s.optional("location", KindLocation),
			CensusMethodID: s.optional("censusMethod", KindCensusMethod),
			Latitude:       s.float("latitude"),
			Longitude:      s.float("longitude"),
			Notes:          s.get("notes").String(),
			Held:           s.get("held").Bool(),
			Visibility:     s.get("visibility").String(),
		}
		// species are reference data and keep their ids across exports
		if id, ok := s.refID("species"); ok {
			r.SpeciesID = &id
		}
		if created, err := s.timeValue("createdAt"); err == nil && created != nil {
			r.CreatedAt = *created
		}
		if n := s.get("number"); n.Type == gjson.Number {
			v := n.Int()
			r.Number = &v
		}
		return store.InsertRecord(ctx, &r)
	}
}

func importAttributeValue(store Store) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		attrID, err := s.required("attribute", KindAttribute)
		if err != nil {
			return 0, err
		}
		date, err := s.timeValue("dateValue")
		if err != nil {
			return 0, err
		}
		v := models.AttributeValue{
			AttributeID:  attrID,
			RecordID:     s.optional("record", KindRecord),
			LocationID:   s.optional("location", KindLocation),
			StringValue:  s.get("stringValue").String(),
			NumericValue: s.float("numericValue"),
			DateValue:    date,
		}
		if v.RecordID == nil && v.LocationID == nil {
			s.notef("value belongs to no record or location")
		}
		return store.InsertAttributeValue(ctx, &v)
	}
}

func importUser(users UserStore) persistFunc {
	return func(ctx context.Context, s *snapshot) (int64, error) {
		var u models.User
		if err := s.decode(&u); err != nil {
			return 0, err
		}
		if u.Login == "" {
			return 0, fmt.Errorf("user has no login")
		}
		// Registration keys are never exported, so every imported user gets
		// a fresh one.
		u.RegistrationKey = uuid.NewString()
		return users.InsertUser(ctx, &u)
	}
}
