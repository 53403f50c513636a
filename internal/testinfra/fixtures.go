// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package testinfra

import (
	"context"
	"testing"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// dbSemaphore serializes DuckDB usage across tests in one package.
var dbSemaphore = make(chan struct{}, 1)

// NewDB opens a fresh in-memory database that is closed when the test ends.
// The pool is the smallest allowed, so streamed exports run with one spare
// connection for hydration.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	dbSemaphore <- struct{}{}
	t.Cleanup(func() { <-dbSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 2, MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	})
	return db
}

// Fixture holds the ids assigned by Seed.
type Fixture struct {
	Alice, Bob, Admin int64
	Birds, Frogs      int64 // surveys
	BirdGroup         int64
	FrogGroup         int64
	Magpie, BellFrog  int64
	Observation       int64
	KingsPark         int64
	Lake              int64
	Weather           int64
	Records           []int64
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Day returns 09:30 UTC on the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

// Seed loads the shared data set:
//
//	id survey  species   owner when        location   visibility held notes
//	1  birds   magpie    alice 2024-03-01  kingsPark  PUBLIC     no   seen near the lake
//	2  birds   magpie    alice 2024-05-10  -          OWNER_ONLY no   Nesting pair
//	3  frogs   bellFrog  bob   2023-11-20  lake       PUBLIC     yes
//	4  frogs   bellFrog  bob   2024-01-15  lake       PUBLIC     no   calling at dusk
//	5  birds   -         bob   2024-03-05  -          PUBLIC     no   unidentified raptor
//
// Records 1 and 5 carry the Weather attribute (Sunny, Cloudy). Kings Park is
// at (-31.96, 115.84) and Lake Monger at (-31.93, 115.83). The admin user
// holds ROLE_ADMIN; registration keys are "<login>-key".
func Seed(t testing.TB, db *database.DB) Fixture {
	t.Helper()
	ctx := context.Background()
	var f Fixture

	must := func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return id
	}

	f.Alice = must(db.InsertUser(ctx, &models.User{Login: "alice", FirstName: "Alice", LastName: "Nguyen", RegistrationKey: "alice-key", Active: true}))
	f.Bob = must(db.InsertUser(ctx, &models.User{Login: "bob", FirstName: "Bob", RegistrationKey: "bob-key", Active: true}))
	f.Admin = must(db.InsertUser(ctx, &models.User{Login: "admin", RegistrationKey: "admin-key", Role: models.RoleAdmin, Active: true}))

	f.Birds = must(db.InsertSurvey(ctx, &models.Survey{Name: "Backyard Birds", Active: true, Public: true}))
	f.Frogs = must(db.InsertSurvey(ctx, &models.Survey{Name: "Frog Watch", Active: true, Public: false, RendererType: models.RendererAtlas}))

	f.BirdGroup = must(db.InsertTaxonGroup(ctx, &models.TaxonGroup{Name: "Birds"}))
	f.FrogGroup = must(db.InsertTaxonGroup(ctx, &models.TaxonGroup{Name: "Frogs"}))
	f.Magpie = must(db.InsertSpecies(ctx, &models.Species{ScientificName: "Gymnorhina tibicen", CommonName: "Australian Magpie", TaxonGroupID: &f.BirdGroup}))
	f.BellFrog = must(db.InsertSpecies(ctx, &models.Species{ScientificName: "Litoria aurea", CommonName: "Green and Golden Bell Frog", TaxonGroupID: &f.FrogGroup}))

	f.Observation = must(db.InsertCensusMethod(ctx, &models.CensusMethod{Name: "Observation", Type: "Standard"}))
	f.KingsPark = must(db.InsertLocation(ctx, &models.Location{Name: "Kings Park", UserID: &f.Alice, Latitude: Ptr(-31.96), Longitude: Ptr(115.84)}))
	f.Lake = must(db.InsertLocation(ctx, &models.Location{Name: "Lake Monger", UserID: &f.Bob, Latitude: Ptr(-31.93), Longitude: Ptr(115.83)}))

	records := []models.Record{
		{SurveyID: f.Birds, SpeciesID: &f.Magpie, LocationID: &f.KingsPark, UserID: f.Alice, When: Day(2024, 3, 1),
			Latitude: Ptr(-31.96), Longitude: Ptr(115.84), Number: Ptr(int64(2)), Visibility: models.VisibilityPublic, Notes: "seen near the lake"},
		{SurveyID: f.Birds, SpeciesID: &f.Magpie, UserID: f.Alice, When: Day(2024, 5, 10), Visibility: models.VisibilityOwnerOnly, Notes: "Nesting pair"},
		{SurveyID: f.Frogs, SpeciesID: &f.BellFrog, LocationID: &f.Lake, UserID: f.Bob, When: Day(2023, 11, 20),
			Latitude: Ptr(-31.93), Longitude: Ptr(115.83), Visibility: models.VisibilityPublic, Held: true},
		{SurveyID: f.Frogs, SpeciesID: &f.BellFrog, LocationID: &f.Lake, CensusMethodID: &f.Observation, UserID: f.Bob, When: Day(2024, 1, 15),
			Latitude: Ptr(-31.93), Longitude: Ptr(115.83), Visibility: models.VisibilityPublic, Notes: "calling at dusk"},
		{SurveyID: f.Birds, UserID: f.Bob, When: Day(2024, 3, 5), Visibility: models.VisibilityPublic, Notes: "unidentified raptor"},
	}
	for i := range records {
		f.Records = append(f.Records, must(db.InsertRecord(ctx, &records[i])))
	}

	f.Weather = must(db.InsertAttribute(ctx, &models.Attribute{SurveyID: &f.Birds, Name: "Weather", TypeCode: "ST"}))
	must(db.InsertAttributeOption(ctx, &models.AttributeOption{AttributeID: f.Weather, Value: "Sunny", Position: 1}))
	must(db.InsertAttributeOption(ctx, &models.AttributeOption{AttributeID: f.Weather, Value: "Cloudy", Position: 0}))
	must(db.InsertAttributeValue(ctx, &models.AttributeValue{RecordID: &f.Records[0], AttributeID: f.Weather, StringValue: "Sunny"}))
	must(db.InsertAttributeValue(ctx, &models.AttributeValue{RecordID: &f.Records[4], AttributeID: f.Weather, StringValue: "Cloudy"}))

	if _, err := db.InsertReport(ctx, &models.Report{Name: "Species summary", Kind: models.ReportSpeciesSummary, Active: true}); err != nil {
		t.Fatalf("seed report: %v", err)
	}

	return f
}

// SeeAll is a viewer with no visibility restriction.
var SeeAll = database.Viewer{SeeAll: true}

// As returns a logged-in viewer for userID.
func As(userID int64) database.Viewer {
	return database.Viewer{UserID: &userID}
}
