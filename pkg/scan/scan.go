/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scan turns rows of a queryable data source into Records. A Scan is lazy,
// single pass, and releases the source cursor exactly once however iteration ends.
package scan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

var (
	// ErrDataSource wraps query and row materialization failures.
	ErrDataSource = errors.New("data source error")
	// ErrScanConsumed is yielded when a Scan is iterated a second time.
	ErrScanConsumed = errors.New("scan already consumed")

	errConversion  = errors.New("malformed value")
	errUnknownKind = errors.New("unknown cell kind")
)

// Row is one row of a data source, addressed by column name.
type Row interface {
	Value(column string) (interface{}, bool)
}

// Cursor is a forward-only, single-pass iterator over rows.
type Cursor interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// DataSource opens cursors over the requested projection.
type DataSource interface {
	Query(ctx context.Context, projection []string) (Cursor, error)
}

// MapRow is a Row backed by a map.
type MapRow map[string]interface{}

func (r MapRow) Value(column string) (interface{}, bool) {
	v, ok := r[column]
	return v, ok
}

// TimestampFunc derives a record's timestamp from its row.
type TimestampFunc func(row Row, now time.Time) time.Time

// TimestampFrom uses column as the record time (time.Time, or unix seconds), falling
// back to now when the column is absent or unusable.
func TimestampFrom(column string) TimestampFunc {
	return func(row Row, now time.Time) time.Time {
		raw, ok := row.Value(column)
		if !ok {
			return now
		}

		switch v := raw.(type) {
		case time.Time:
			return v
		default:
			secs, err := toFloat64(raw)
			if err != nil {
				return now
			}

			return time.Unix(0, int64(secs*float64(time.Second)))
		}
	}
}

// Option configures a Scan.
type Option func(*Scan)

func WithLogger(log logger.Logger) Option {
	return func(s *Scan) { s.log = log }
}

func WithTimestamp(fn TimestampFunc) Option {
	return func(s *Scan) { s.timestamp = fn }
}

// WithTimestampColumn stamps records from column and adds it to the projection, so
// sources that only read projected columns still supply it.
func WithTimestampColumn(column string) Option {
	return func(s *Scan) {
		s.timestamp = TimestampFrom(column)
		s.extra = append(s.extra, column)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scan) { s.now = now }
}

// Scan is one execution over a DataSource.
type Scan struct {
	source    DataSource
	cells     []Cell
	log       logger.Logger
	timestamp TimestampFunc
	extra     []string
	now       func() time.Time
	consumed  atomic.Bool
}

// New prepares a scan. Nothing touches the source until the records are iterated.
func New(source DataSource, cells []Cell, opts ...Option) *Scan {
	s := &Scan{
		source: source,
		cells:  cells,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Projection returns the distinct columns the cells read, in cell order, followed by
// any columns requested through options.
func (s *Scan) Projection() []string {
	seen := make(map[string]struct{}, len(s.cells)+len(s.extra))
	out := make([]string, 0, len(s.cells)+len(s.extra))

	add := func(col string) {
		if _, ok := seen[col]; ok {
			return
		}

		seen[col] = struct{}{}
		out = append(out, col)
	}

	for _, c := range s.cells {
		add(c.Column())
	}

	for _, col := range s.extra {
		add(col)
	}

	return out
}

// Records yields one Record per non-nil row. Iteration stops at the first error, which
// is yielded with a zero Record. The cursor is closed when iteration ends for any reason.
func (s *Scan) Records(ctx context.Context) iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(models.Record{}, ErrScanConsumed)
			return
		}

		cur, err := s.source.Query(ctx, s.Projection())
		if err != nil {
			yield(models.Record{}, fmt.Errorf("%w: query failed: %w", ErrDataSource, err))
			return
		}

		release := s.releaser(cur)
		defer release()

		for cur.Next() {
			if err := ctx.Err(); err != nil {
				yield(models.Record{}, err)
				return
			}

			row := cur.Row()
			if row == nil {
				continue
			}

			rec, err := s.materialize(row)
			if err != nil {
				yield(models.Record{}, fmt.Errorf("%w: malformed row: %w", ErrDataSource, err))
				return
			}

			if !yield(rec, nil) {
				return
			}
		}

		if err := cur.Err(); err != nil {
			yield(models.Record{}, fmt.Errorf("%w: cursor failed: %w", ErrDataSource, err))
		}
	}
}

func (s *Scan) materialize(row Row) (models.Record, error) {
	fields := make([]models.Field, 0, len(s.cells))

	for _, c := range s.cells {
		v, ok, err := c.Extract(row)
		if err != nil {
			return models.Record{}, fmt.Errorf("field %q: %w", c.Field, err)
		}

		if !ok {
			continue
		}

		fields = append(fields, models.Field{Name: c.Field, Value: v})
	}

	now := s.now()
	ts := now

	if s.timestamp != nil {
		ts = s.timestamp(row, now)
	}

	return models.NewRecord(fields, ts), nil
}

func (s *Scan) releaser(cur Cursor) func() {
	var once sync.Once

	return func() {
		once.Do(func() {
			if err := cur.Close(); err != nil && s.log != nil {
				s.log.Warn().Err(err).Msg("Failed to close data source cursor")
			}
		})
	}
}
