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

package probes

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/scan"
	"github.com/carverauto/fieldprobe/pkg/scan/pgsource"
)

// ParamLimit caps the number of rows one table scan reads.
const ParamLimit = "limit"

// maxTableLimit bounds both the configured and the requested row limit.
const maxTableLimit = 100000

var (
	errNoColumns  = errors.New("table probe needs at least one column")
	errNoField    = errors.New("column needs a field name")
	errHashedKind = errors.New("hashed columns must be strings")
	errBadLimit   = fmt.Errorf("limit must be between 0 and %d", maxTableLimit)
)

// ColumnSpec maps one table column to one record field.
type ColumnSpec struct {
	Field  string `json:"field"`
	Column string `json:"column,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Hashed bool   `json:"hashed,omitempty"`
}

// TableDetails configures a table probe.
type TableDetails struct {
	Table           string       `json:"table"`
	OrderBy         string       `json:"order_by,omitempty"`
	Limit           int          `json:"limit,omitempty"`
	TimestampColumn string       `json:"timestamp_column,omitempty"`
	Mode            string       `json:"mode,omitempty"`
	Columns         []ColumnSpec `json:"columns"`
}

// tableLimit resolves the requested row limit. Zero, negative and NaN values fall back
// to the configured limit; larger values are clamped to maxTableLimit.
func tableLimit(params models.Params, fallback int) int {
	v, ok := params.Float(ParamLimit)
	if !ok || math.IsNaN(v) || v <= 0 {
		return fallback
	}

	if v >= maxTableLimit {
		return maxTableLimit
	}

	return int(v)
}

func parseMode(s string) (scan.Mode, error) {
	switch s {
	case "", "batch":
		return scan.Batch, nil
	case "per-row", "per_row":
		return scan.PerRow, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", errInvalidDetails, s)
	}
}

// buildCells turns column specs into cells. Kind defaults to string.
func buildCells(cols []ColumnSpec, h scan.Hasher) ([]scan.Cell, error) {
	if len(cols) == 0 {
		return nil, errNoColumns
	}

	cells := make([]scan.Cell, 0, len(cols))

	for _, col := range cols {
		if col.Field == "" {
			return nil, errNoField
		}

		kind := scan.KindString

		if col.Kind != "" {
			var err error

			if kind, err = scan.ParseKind(col.Kind); err != nil {
				return nil, fmt.Errorf("field %s: %w", col.Field, err)
			}
		}

		var cell scan.Cell

		switch {
		case col.Hashed && kind != scan.KindString:
			return nil, fmt.Errorf("field %s: %w", col.Field, errHashedKind)
		case col.Hashed:
			if h == nil {
				return nil, errHasherRequired
			}

			cell = scan.HashedStringCell(col.Field, h)
		default:
			cell = scan.Cell{Field: col.Field, Kind: kind}
		}

		if col.Column != "" {
			cell = cell.From(col.Column)
		}

		cells = append(cells, cell)
	}

	return cells, nil
}

func newTableProbe(_ context.Context, spec Spec, deps Deps) (probe.Hooks, error) {
	var details TableDetails
	if err := spec.decodeDetails(&details); err != nil {
		return nil, err
	}

	if deps.DB == nil {
		return nil, errDatabaseMissing
	}

	mode, err := parseMode(details.Mode)
	if err != nil {
		return nil, err
	}

	if details.Limit < 0 || details.Limit > maxTableLimit {
		return nil, fmt.Errorf("%w: %w", errInvalidDetails, errBadLimit)
	}

	cells, err := buildCells(details.Columns, deps.Hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDetails, err)
	}

	// Validate the relation name up front rather than on the first run.
	if _, err := pgsource.NewTable(deps.DB, details.Table, details.OrderBy, details.Limit); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDetails, err)
	}

	var opts []scan.Option
	if details.TimestampColumn != "" {
		opts = append(opts, scan.WithTimestampColumn(details.TimestampColumn))
	}

	return probe.NewScanProbe(probe.ScanConfig{
		ID:       spec.idOr(models.ProbeID(TypeTable + "." + details.Table)),
		DataName: spec.dataNameOr(details.Table),
		Mode:     mode,
		Parameters: []models.Parameter{
			{Name: models.ParamPeriod, Default: probe.DefaultPeriod, Merge: models.MergeMin},
			{Name: ParamLimit, Default: float64(details.Limit), Merge: models.MergeLast},
		},
		Source: func(_ context.Context, params models.Params) (scan.DataSource, error) {
			return pgsource.NewTable(deps.DB, details.Table, details.OrderBy, tableLimit(params, details.Limit))
		},
		Cells:       func(models.Params) []scan.Cell { return cells },
		ScanOptions: deps.scanOptions(opts...),
	}), nil
}
