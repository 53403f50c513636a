// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package database

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/gaiaresources/bdrs-review/internal/models"
)

var attributeColumns = []string{"id", "survey_id", "census_method_id", "name", "description", "type_code", "required", "scope"}

func scanAttribute(s scanner) (*models.Attribute, error) {
	var (
		a                  models.Attribute
		surveyID, methodID sql.NullInt64
	)
	if err := s.Scan(&a.ID, &surveyID, &methodID, &a.Name, &a.Description, &a.TypeCode, &a.Required, &a.Scope); err != nil {
		return nil, err
	}
	a.SurveyID = intPtr(surveyID)
	a.CensusMethodID = intPtr(methodID)
	return &a, nil
}

// InsertAttribute stores an attribute (without options) and returns its new id.
func (db *DB) InsertAttribute(ctx context.Context, a *models.Attribute) (int64, error) {
	scope := a.Scope
	if scope == "" {
		scope = "SURVEY"
	}
	query, args, err := sq.Insert("attributes").
		Columns("survey_id", "census_method_id", "name", "description", "type_code", "required", "scope").
		Values(nullableInt(a.SurveyID), nullableInt(a.CensusMethodID), a.Name, a.Description, a.TypeCode, a.Required, scope).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build attribute insert: %w", err)
	}
	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attribute %q: %w", a.Name, err)
	}
	a.ID = id
	a.Scope = scope
	return id, nil
}

// InsertAttributeOption stores an attribute option and returns its new id.
func (db *DB) InsertAttributeOption(ctx context.Context, o *models.AttributeOption) (int64, error) {
	id, err := db.insertReturningID(ctx,
		"INSERT INTO attribute_options (attribute_id, value, position) VALUES (?, ?, ?) RETURNING id",
		o.AttributeID, o.Value, o.Position)
	if err != nil {
		return 0, fmt.Errorf("failed to insert option for attribute %d: %w", o.AttributeID, err)
	}
	o.ID = id
	return id, nil
}

// AttributeByID loads an attribute with its options in position order.
func (db *DB) AttributeByID(ctx context.Context, id int64) (*models.Attribute, error) {
	a, err := queryOne(ctx, db, "attribute", id,
		sq.Select(attributeColumns...).From("attributes").Where(sq.Eq{"id": id}), scanAttribute)
	if err != nil {
		return nil, err
	}
	if err := db.loadOptions(ctx, []*models.Attribute{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// AttributesForSurveys lists the attributes of the given surveys, with options,
// ordered by survey then id.
func (db *DB) AttributesForSurveys(ctx context.Context, surveyIDs []int64) ([]*models.Attribute, error) {
	attrs, err := queryMany(ctx, db, "list attributes",
		sq.Select(attributeColumns...).From("attributes").Where(sq.Eq{"survey_id": surveyIDs}).OrderBy("survey_id", "id"),
		scanAttribute)
	if err != nil {
		return nil, err
	}
	if err := db.loadOptions(ctx, attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (db *DB) loadOptions(ctx context.Context, attrs []*models.Attribute) error {
	if len(attrs) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Attribute, len(attrs))
	ids := make([]int64, 0, len(attrs))
	for _, a := range attrs {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	opts, err := queryMany(ctx, db, "load attribute options",
		sq.Select("id", "attribute_id", "value", "position").From("attribute_options").
			Where(sq.Eq{"attribute_id": ids}).OrderBy("attribute_id", "position", "id"),
		func(s scanner) (models.AttributeOption, error) {
			var o models.AttributeOption
			err := s.Scan(&o.ID, &o.AttributeID, &o.Value, &o.Position)
			return o, err
		})
	if err != nil {
		return err
	}
	for _, o := range opts {
		if a := byID[o.AttributeID]; a != nil {
			a.Options = append(a.Options, o)
		}
	}
	return nil
}

// InsertAttributeValue stores a record or location attribute value.
func (db *DB) InsertAttributeValue(ctx context.Context, v *models.AttributeValue) (int64, error) {
	query, args, err := sq.Insert("attribute_values").
		Columns("record_id", "location_id", "attribute_id", "string_value", "numeric_value", "date_value").
		Values(nullableInt(v.RecordID), nullableInt(v.LocationID), v.AttributeID, v.StringValue,
			nullableFloat(v.NumericValue), nullableTime(v.DateValue)).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build attribute value insert: %w", err)
	}
	id, err := db.insertReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert value for attribute %d: %w", v.AttributeID, err)
	}
	v.ID = id
	return id, nil
}

// AttributeValuesForRecords loads attribute values for the given records,
// grouped by record id and ordered by attribute id.
func (db *DB) AttributeValuesForRecords(ctx context.Context, recordIDs []int64) (map[int64][]models.AttributeValue, error) {
	out := make(map[int64][]models.AttributeValue)
	if len(recordIDs) == 0 {
		return out, nil
	}
	values, err := queryMany(ctx, db, "load attribute values",
		sq.Select("av.id", "av.record_id", "av.location_id", "av.attribute_id", "a.name",
			"av.string_value", "av.numeric_value", "av.date_value").
			From("attribute_values av").
			Join("attributes a ON a.id = av.attribute_id").
			Where(sq.Eq{"av.record_id": recordIDs}).
			OrderBy("av.record_id", "av.attribute_id", "av.id"),
		func(s scanner) (models.AttributeValue, error) {
			var (
				v               models.AttributeValue
				recordID, locID sql.NullInt64
				numeric         sql.NullFloat64
				date            sql.NullTime
			)
			if err := s.Scan(&v.ID, &recordID, &locID, &v.AttributeID, &v.AttributeName, &v.StringValue, &numeric, &date); err != nil {
				return v, err
			}
			v.RecordID = intPtr(recordID)
			v.LocationID = intPtr(locID)
			v.NumericValue = floatPtr(numeric)
			v.DateValue = timePtr(date)
			return v, nil
		})
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		out[*v.RecordID] = append(out[*v.RecordID], v)
	}
	return out, nil
}
