// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"testing"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests; concurrent CGO calls
// from many in-memory databases are slow under CI.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB opens a fresh in-memory database held for the whole test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return setupTestDBWithConfig(t, config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 2})
}

func setupTestDBWithConfig(t *testing.T, cfg config.DatabaseConfig) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	})
	return db
}

// fixture ids, assigned in insertion order from fresh sequences
type fixture struct {
	alice, bob, admin int64
	birds, frogs      int64 // surveys
	magpie, bellFrog  int64
	kingsPark         int64
	observation       int64
	weather           int64
	records           []int64
}

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

// seed loads a small data set:
//
//	id survey  species   owner when        visibility held notes
//	1  birds   magpie    alice 2024-03-01  PUBLIC     no   seen near the lake
//	2  birds   magpie    alice 2024-05-10  OWNER_ONLY no   Nesting pair
//	3  frogs   bellFrog  bob   2023-11-20  PUBLIC     yes
//	4  frogs   bellFrog  bob   2024-01-15  PUBLIC     no   calling at dusk
//	5  birds   -         bob   2024-03-05  PUBLIC     no   unidentified raptor
func seed(t *testing.T, db *DB) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture

	must := func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return id
	}

	f.alice = must(db.InsertUser(ctx, &models.User{Login: "alice", FirstName: "Alice", LastName: "Nguyen", RegistrationKey: "alice-key", Active: true}))
	f.bob = must(db.InsertUser(ctx, &models.User{Login: "bob", FirstName: "Bob", RegistrationKey: "bob-key", Active: true}))
	f.admin = must(db.InsertUser(ctx, &models.User{Login: "admin", RegistrationKey: "admin-key", Role: models.RoleAdmin, Active: true}))

	f.birds = must(db.InsertSurvey(ctx, &models.Survey{Name: "Backyard Birds", Active: true, Public: true}))
	f.frogs = must(db.InsertSurvey(ctx, &models.Survey{Name: "Frog Watch", Active: true, Public: false, RendererType: models.RendererAtlas}))

	birdGroup := must(db.InsertTaxonGroup(ctx, &models.TaxonGroup{Name: "Birds"}))
	frogGroup := must(db.InsertTaxonGroup(ctx, &models.TaxonGroup{Name: "Frogs"}))
	f.magpie = must(db.InsertSpecies(ctx, &models.Species{ScientificName: "Gymnorhina tibicen", CommonName: "Australian Magpie", TaxonGroupID: &birdGroup}))
	f.bellFrog = must(db.InsertSpecies(ctx, &models.Species{ScientificName: "Litoria aurea", CommonName: "Green and Golden Bell Frog", TaxonGroupID: &frogGroup}))

	f.observation = must(db.InsertCensusMethod(ctx, &models.CensusMethod{Name: "Observation", Type: "Standard"}))
	f.kingsPark = must(db.InsertLocation(ctx, &models.Location{Name: "Kings Park", UserID: &f.alice, Latitude: ptr(-31.96), Longitude: ptr(115.84)}))

	records := []models.Record{
		{SurveyID: f.birds, SpeciesID: &f.magpie, LocationID: &f.kingsPark, UserID: f.alice, When: day(2024, 3, 1),
			Latitude: ptr(-31.96), Longitude: ptr(115.84), Number: ptr(int64(2)), Visibility: models.VisibilityPublic, Notes: "seen near the lake"},
		{SurveyID: f.birds, SpeciesID: &f.magpie, UserID: f.alice, When: day(2024, 5, 10), Visibility: models.VisibilityOwnerOnly, Notes: "Nesting pair"},
		{SurveyID: f.frogs, SpeciesID: &f.bellFrog, UserID: f.bob, When: day(2023, 11, 20), Visibility: models.VisibilityPublic, Held: true},
		{SurveyID: f.frogs, SpeciesID: &f.bellFrog, CensusMethodID: &f.observation, UserID: f.bob, When: day(2024, 1, 15),
			Visibility: models.VisibilityPublic, Notes: "calling at dusk"},
		{SurveyID: f.birds, UserID: f.bob, When: day(2024, 3, 5), Visibility: models.VisibilityPublic, Notes: "unidentified raptor"},
	}
	for i := range records {
		f.records = append(f.records, must(db.InsertRecord(ctx, &records[i])))
	}

	f.weather = must(db.InsertAttribute(ctx, &models.Attribute{SurveyID: &f.birds, Name: "Weather", TypeCode: "ST"}))
	must(db.InsertAttributeOption(ctx, &models.AttributeOption{AttributeID: f.weather, Value: "Sunny", Position: 1}))
	must(db.InsertAttributeOption(ctx, &models.AttributeOption{AttributeID: f.weather, Value: "Cloudy", Position: 0}))
	must(db.InsertAttributeValue(ctx, &models.AttributeValue{RecordID: &f.records[0], AttributeID: f.weather, StringValue: "Sunny"}))
	must(db.InsertAttributeValue(ctx, &models.AttributeValue{RecordID: &f.records[4], AttributeID: f.weather, StringValue: "Cloudy"}))

	return f
}

func ids(records []*models.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
