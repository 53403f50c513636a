// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

func TestCursorStreamsAllRecords(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	cursor, err := db.OpenCursor(ctx, RecordQuery{Viewer: Viewer{SeeAll: true}})
	if err != nil {
		t.Fatalf("OpenCursor() error = %v", err)
	}
	defer closeQuietly(cursor)

	var got []*models.Record
	for cursor.Next() {
		got = append(got, cursor.Record())
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor error = %v", err)
	}
	if !equalIDs(ids(got), f.records) {
		t.Errorf("cursor ids = %v, want %v", ids(got), f.records)
	}
	if got[4].Species != nil {
		t.Error("record without species should have nil Species")
	}
}

func TestSessionHydrate(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	records, err := db.QueryRecords(ctx, RecordQuery{Viewer: Viewer{SeeAll: true}}, 0, 0)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}

	session := db.NewSession()
	if err := session.Hydrate(ctx, records[:2]); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	// identity map: both magpie records share one Species value
	if records[0].Species != records[1].Species {
		t.Error("records of the same species should share the cached entity")
	}
	if records[0].Species.TaxonGroupID == nil {
		t.Error("hydrated species should carry its taxon group")
	}
	if records[0].User.Name() != "Alice Nguyen" {
		t.Errorf("hydrated user name = %q", records[0].User.Name())
	}
	if records[0].Location.Latitude == nil {
		t.Error("hydrated location should carry coordinates")
	}
	if len(records[0].AttributeValues) != 1 {
		t.Errorf("attribute values = %+v", records[0].AttributeValues)
	}
	// species, location, user, survey
	if got := session.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}

	session.Clear()
	if session.Size() != 0 || session.Clears() != 1 {
		t.Errorf("after Clear: Size() = %d, Clears() = %d", session.Size(), session.Clears())
	}

	if err := session.Hydrate(ctx, records[2:]); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if records[3].CensusMethod == nil || records[3].CensusMethod.Name != "Observation" {
		t.Errorf("census method = %+v", records[3].CensusMethod)
	}
	if records[4].Survey.ID != f.birds || records[4].Survey.Name != "Backyard Birds" {
		t.Errorf("survey = %+v", records[4].Survey)
	}
	if err := session.Hydrate(ctx, nil); err != nil {
		t.Errorf("Hydrate(nil) error = %v", err)
	}
}

func TestStreamingCursorHydratesOnSmallestPool(t *testing.T) {
	db := setupTestDBWithConfig(t, config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 1, MaxOpenConns: 1})
	f := seed(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := db.OpenCursor(ctx, RecordQuery{Viewer: Viewer{SeeAll: true}})
	if err != nil {
		t.Fatalf("OpenCursor() error = %v", err)
	}
	defer closeQuietly(cursor)

	session := db.NewSession()
	var got []*models.Record
	for cursor.Next() {
		r := cursor.Record()
		if err := session.Hydrate(ctx, []*models.Record{r}); err != nil {
			t.Fatalf("Hydrate() while cursor open error = %v", err)
		}
		got = append(got, r)
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor error = %v", err)
	}
	if !equalIDs(ids(got), f.records) {
		t.Errorf("cursor ids = %v, want %v", ids(got), f.records)
	}
}

func TestStreamSlotsLimitOpenCursors(t *testing.T) {
	db := setupTestDBWithConfig(t, config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 1, MaxOpenConns: 2})
	seed(t, db)
	ctx := context.Background()
	q := RecordQuery{Viewer: Viewer{SeeAll: true}}

	first, err := db.OpenCursor(ctx, q)
	if err != nil {
		t.Fatalf("OpenCursor() error = %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := db.OpenCursor(waitCtx, q); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second OpenCursor() error = %v, want deadline exceeded", err)
	}

	// QueryRecords reads eagerly and needs no slot.
	if _, err := db.QueryRecords(ctx, q, 0, 0); err != nil {
		t.Fatalf("QueryRecords() with a stream open error = %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Logf("second Close() error = %v", err)
	}
	second, err := db.OpenCursor(ctx, q)
	if err != nil {
		t.Fatalf("OpenCursor() after Close error = %v", err)
	}
	closeQuietly(second)
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		configured int
		want       int
	}{
		{configured: 1, want: 2},
		{configured: 2, want: 2},
		{configured: 9, want: 9},
		{configured: 0, want: max(2, 2*runtime.NumCPU())},
	}
	for _, tt := range tests {
		if got := poolSize(&config.DatabaseConfig{MaxOpenConns: tt.configured}); got != tt.want {
			t.Errorf("poolSize(%d) = %d, want %d", tt.configured, got, tt.want)
		}
	}
}
