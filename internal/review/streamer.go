// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

import (
	"context"
	"fmt"

	"github.com/gaiaresources/bdrs-review/internal/metrics"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// DefaultBatchSize is used when a Streamer has no batch size.
const DefaultBatchSize = 50

// Cursor is a forward-only record result set.
type Cursor interface {
	Next() bool
	Record() *models.Record
	Err() error
}

// Session hydrates records and can be cleared between batches.
type Session interface {
	Hydrate(ctx context.Context, records []*models.Record) error
	Clear()
}

// Sink receives records in batches. WriteBatch may buffer; Flush pushes the
// buffered output to the underlying writer. Sinks must produce the same
// output whatever the batch boundaries are.
type Sink interface {
	WriteBatch(ctx context.Context, records []*models.Record) error
	Flush() error
}

// Stats summarises one streamed export.
type Stats struct {
	Records int
	Batches int
	Clears  int
}

// Streamer reads a cursor in fixed-size batches. After each batch it flushes
// the sink and clears the session, so memory is bounded by BatchSize.
type Streamer struct {
	BatchSize int
	Format    string // metrics label
}

func (s Streamer) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// Stream drains cur into sink. N records produce ceil(N/BatchSize) batches
// and as many session clears.
func (s Streamer) Stream(ctx context.Context, cur Cursor, sess Session, sink Sink) (Stats, error) {
	size := s.batchSize()
	var stats Stats
	batch := make([]*models.Record, 0, size)

	emit := func() error {
		if err := sess.Hydrate(ctx, batch); err != nil {
			return err
		}
		if err := sink.WriteBatch(ctx, batch); err != nil {
			return fmt.Errorf("write batch %d: %w", stats.Batches+1, err)
		}
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("flush batch %d: %w", stats.Batches+1, err)
		}
		stats.Batches++
		metrics.RecordExportBatch(s.Format, len(batch))

		sess.Clear()
		stats.Clears++
		batch = make([]*models.Record, 0, size)
		return nil
	}

	for cur.Next() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch = append(batch, cur.Record())
		stats.Records++
		if len(batch) == size {
			if err := emit(); err != nil {
				return stats, err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return stats, fmt.Errorf("read records: %w", err)
	}
	if len(batch) > 0 {
		if err := emit(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
