// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package importer recreates exported entity snapshots in the local store.
//
// A snapshot is a JSON object whose "_class" names its kind and whose "_id"
// is the id it had where it was exported. References to other snapshots use
// those old ids; the registry keeps an IDMap from old to new ids so
// snapshots must arrive dependencies first:
//
//	[{"_class":"Survey","_id":3,"name":"Birds"},
//	 {"_class":"Record","_id":10,"survey":3,"when":1709285400000}]
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/metrics"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Snapshot keys.
const (
	ClassKey = "_class"
	IDKey    = "_id"
)

var (
	// ErrMissingClass is returned for a snapshot without a class key.
	ErrMissingClass = errors.New("snapshot has no " + ClassKey)
	// ErrUnknownKind is returned when no handler is registered for the class.
	ErrUnknownKind = errors.New("no import handler registered")
	// ErrUnresolvedReference is returned when a required reference points
	// at a snapshot that has not been imported.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrNotArray is returned by ImportAll for input that is not a JSON array.
	ErrNotArray = errors.New("import data must be a JSON array")
)

// Kind is an importable entity type.
type Kind string

const (
	KindSurvey          Kind = "Survey"
	KindMetadata        Kind = "Metadata"
	KindAttribute       Kind = "Attribute"
	KindAttributeOption Kind = "AttributeOption"
	KindCensusMethod    Kind = "CensusMethod"
	KindLocation        Kind = "Location"
	KindRecord          Kind = "Record"
	KindAttributeValue  Kind = "AttributeValue"
	KindUser            Kind = "User"
)

// Kinds lists every kind in registration order.
var Kinds = []Kind{
	KindSurvey, KindMetadata, KindAttribute, KindAttributeOption, KindCensusMethod,
	KindLocation, KindRecord, KindAttributeValue, KindUser,
}

// ParseKind accepts a short kind name or a dotted class name ending in one,
// e.g. "au.com.gaiaresources.bdrs.model.record.Record".
func ParseKind(class string) (Kind, bool) {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		class = class[i+1:]
	}
	for _, k := range Kinds {
		if string(k) == class {
			return k, true
		}
	}
	return "", false
}

// Store persists imported entities.
type Store interface {
	InsertSurvey(ctx context.Context, s *models.Survey) (int64, error)
	InsertMetadata(ctx context.Context, m *models.MetadataEntry) (int64, error)
	InsertAttribute(ctx context.Context, a *models.Attribute) (int64, error)
	InsertAttributeOption(ctx context.Context, o *models.AttributeOption) (int64, error)
	InsertCensusMethod(ctx context.Context, cm *models.CensusMethod) (int64, error)
	InsertLocation(ctx context.Context, l *models.Location) (int64, error)
	InsertRecord(ctx context.Context, r *models.Record) (int64, error)
	InsertAttributeValue(ctx context.Context, v *models.AttributeValue) (int64, error)
}

// UserStore persists imported user accounts.
type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) (int64, error)
}

// Publisher is told about each import that stored at least one entity.
type Publisher interface {
	PublishImported(ctx context.Context, result models.ImportResult) error
}

// Registry maps kinds to their handlers and tracks ids across snapshots.
// Calls are serialized.
type Registry struct {
	mu        sync.Mutex
	handlers  map[Kind]*handler
	order     []*handler
	ids       *IDMap
	publisher Publisher
}

// NewRegistry registers a handler for every kind backed by store. The User
// handler is only registered when users is non-nil. publisher may be nil.
func NewRegistry(store Store, users UserStore, publisher Publisher) *Registry {
	r := &Registry{
		handlers:  make(map[Kind]*handler),
		ids:       NewIDMap(),
		publisher: publisher,
	}
	r.register(KindSurvey, importSurvey(store))
	r.register(KindMetadata, importMetadata(store))
	r.register(KindAttribute, importAttribute(store))
	r.register(KindAttributeOption, importAttributeOption(store))
	r.register(KindCensusMethod, importCensusMethod(store))
	r.register(KindLocation, importLocation(store))
	r.register(KindRecord, importRecord(store))
	r.register(KindAttributeValue, importAttributeValue(store))
	if users != nil {
		r.register(KindUser, importUser(users))
	}
	return r
}

func (r *Registry) register(kind Kind, persist persistFunc) {
	h := &handler{kind: kind, persist: persist}
	r.handlers[kind] = h
	r.order = append(r.order, h)
}

// Handles reports whether kind has a registered handler.
func (r *Registry) Handles(kind Kind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// IDs returns the old to new id map built so far.
func (r *Registry) IDs() *IDMap {
	return r.ids
}

// Import creates the entity encoded in raw and returns its kind and new id.
func (r *Registry) Import(ctx context.Context, raw []byte) (Kind, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.importOne(ctx, raw)
}

func (r *Registry) importOne(ctx context.Context, raw []byte) (Kind, int64, error) {
	class := gjson.GetBytes(raw, ClassKey)
	if !class.Exists() || class.String() == "" {
		return "", 0, ErrMissingClass
	}
	kind, ok := ParseKind(class.String())
	if !ok {
		return "", 0, fmt.Errorf("%w for class %q", ErrUnknownKind, class.String())
	}
	h, ok := r.handlers[kind]
	if !ok {
		return kind, 0, fmt.Errorf("%w for class %q", ErrUnknownKind, class.String())
	}

	id, err := h.importData(ctx, raw, r.ids)
	metrics.RecordImport(string(kind), err)
	return kind, id, err
}

// ImportAll imports every snapshot in a JSON array, in order. It stops at
// the first failure; entities stored before it are kept. Each call is a
// separate batch: ids and messages from earlier calls are discarded first,
// so references only resolve within the array.
func (r *Registry) ImportAll(ctx context.Context, raw []byte) (models.ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	arr := gjson.ParseBytes(raw)
	if !arr.IsArray() {
		return models.ImportResult{}, ErrNotArray
	}
	r.ids = NewIDMap()
	r.clearMessages()

	result := models.ImportResult{IDs: make(map[string]int)}
	var importErr error
	index := 0
	arr.ForEach(func(_, value gjson.Result) bool {
		if err := ctx.Err(); err != nil {
			importErr = err
			return false
		}
		kind, _, err := r.importOne(ctx, []byte(value.Raw))
		if err != nil {
			importErr = fmt.Errorf("snapshot %d: %w", index, err)
			return false
		}
		result.Imported++
		result.IDs[string(kind)]++
		index++
		return true
	})
	result.Messages = r.messages()

	logging.Info().
		Int("imported", result.Imported).
		Int("messages", len(result.Messages)).
		Bool("failed", importErr != nil).
		Msg("Import finished")

	if result.Imported > 0 && r.publisher != nil {
		if err := r.publisher.PublishImported(ctx, result); err != nil {
			logging.Warn().Err(err).Msg("Failed to publish import event")
		}
	}
	return result, importErr
}

// Messages returns the notes handlers made while importing, grouped by kind
// in registration order.
func (r *Registry) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages()
}

func (r *Registry) messages() []string {
	var out []string
	for _, h := range r.order {
		out = append(out, h.messages...)
	}
	return out
}

// ClearMessages discards accumulated messages.
func (r *Registry) ClearMessages() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearMessages()
}

func (r *Registry) clearMessages() {
	for _, h := range r.order {
		h.messages = nil
	}
}

// IDMap maps snapshot ids to stored ids, per kind.
type IDMap struct {
	ids map[Kind]map[int64]int64
}

// NewIDMap returns an empty map.
func NewIDMap() *IDMap {
	return &IDMap{ids: make(map[Kind]map[int64]int64)}
}

// Put records that the snapshot oldID of kind was stored as newID.
func (m *IDMap) Put(kind Kind, oldID, newID int64) {
	byKind, ok := m.ids[kind]
	if !ok {
		byKind = make(map[int64]int64)
		m.ids[kind] = byKind
	}
	byKind[oldID] = newID
}

// Get returns the stored id for a snapshot id.
func (m *IDMap) Get(kind Kind, oldID int64) (int64, bool) {
	id, ok := m.ids[kind][oldID]
	return id, ok
}

// Len returns the number of mapped ids of kind.
func (m *IDMap) Len(kind Kind) int {
	return len(m.ids[kind])
}
