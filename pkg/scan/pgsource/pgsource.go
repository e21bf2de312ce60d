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

// Package pgsource exposes a PostgreSQL table or view as a scan data source.
package pgsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

var (
	errTableRequired = errors.New("table name is required")
	errNoColumns     = errors.New("empty projection")
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Table reads the projected columns of one relation.
type Table struct {
	db      Querier
	name    pgx.Identifier
	orderBy string
	limit   int
}

// NewTable builds a source for relation "name" or "schema.name".
func NewTable(db Querier, name, orderBy string, limit int) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errTableRequired
	}

	return &Table{
		db:      db,
		name:    pgx.Identifier(strings.Split(name, ".")),
		orderBy: orderBy,
		limit:   limit,
	}, nil
}

// SQL renders the query for projection with every identifier quoted.
func (t *Table) SQL(projection []string) (string, error) {
	if len(projection) == 0 {
		return "", errNoColumns
	}

	cols := make([]string, len(projection))
	for i, c := range projection {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), t.name.Sanitize())

	if t.orderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", pgx.Identifier{t.orderBy}.Sanitize())
	}

	if t.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", t.limit)
	}

	return b.String(), nil
}

func (t *Table) Query(ctx context.Context, projection []string) (scan.Cursor, error) {
	query, err := t.SQL(projection)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name.Sanitize(), err)
	}

	return NewCursor(rows), nil
}

// Cursor adapts pgx.Rows to scan.Cursor.
type Cursor struct {
	rows    pgx.Rows
	columns []string
	current scan.MapRow
	err     error
}

func NewCursor(rows pgx.Rows) *Cursor {
	fds := rows.FieldDescriptions()

	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	return &Cursor{rows: rows, columns: columns}
}

func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}

	values, err := c.rows.Values()
	if err != nil {
		c.err = err
		return false
	}

	row := make(scan.MapRow, len(values))
	for i, v := range values {
		if i < len(c.columns) {
			row[c.columns[i]] = v
		}
	}

	c.current = row

	return true
}

func (c *Cursor) Row() scan.Row { return c.current }

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}

	return c.rows.Err()
}

func (c *Cursor) Close() error {
	c.rows.Close()
	return nil
}
