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

package scan

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the output type of a Cell.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindLong
	KindDouble
	KindString
	KindAny
	KindHashedString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindAny:
		return "any"
	case KindHashedString:
		return "hashed-string"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String for the plain kinds. Hashed strings need a
// Hasher and are built with HashedStringCell instead.
func ParseKind(name string) (Kind, error) {
	for k := KindBool; k <= KindAny; k++ {
		if k.String() == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownKind, name)
}

// Hasher is the one-way keyed hash applied by hashed-string cells.
type Hasher interface {
	Hash(value string) string
}

// ExtractFunc reads a value from a row. ok=false means the field is absent.
type ExtractFunc func(row Row) (value interface{}, ok bool, err error)

// Cell maps one column of a row to one typed Record field. Cells are stateless and
// may be shared between scans.
type Cell struct {
	Field   string
	Source  string
	Kind    Kind
	hasher  Hasher
	extract ExtractFunc
}

// NewCell builds a cell with a custom extractor. source is the column added to the
// scan projection on the cell's behalf.
func NewCell(field, source string, kind Kind, fn ExtractFunc) Cell {
	return Cell{Field: field, Source: source, Kind: kind, extract: fn}
}

// Column is the data-source column the cell reads.
func (c Cell) Column() string {
	if c.Source != "" {
		return c.Source
	}

	return c.Field
}

// From returns a copy of c that reads column instead of its field name.
func (c Cell) From(column string) Cell {
	c.Source = column
	return c
}

// Extract applies the cell to a row.
func (c Cell) Extract(row Row) (interface{}, bool, error) {
	if c.extract != nil {
		return c.extract(row)
	}

	raw, ok := row.Value(c.Column())
	if !ok || raw == nil {
		return nil, false, nil
	}

	v, err := convert(c.Kind, raw)
	if err != nil {
		return nil, false, fmt.Errorf("column %q: %w", c.Column(), err)
	}

	if c.Kind == KindHashedString {
		return c.hasher.Hash(v.(string)), true, nil
	}

	return v, true, nil
}

func BoolCell(field string) Cell   { return Cell{Field: field, Kind: KindBool} }
func IntCell(field string) Cell    { return Cell{Field: field, Kind: KindInt} }
func LongCell(field string) Cell   { return Cell{Field: field, Kind: KindLong} }
func DoubleCell(field string) Cell { return Cell{Field: field, Kind: KindDouble} }
func StringCell(field string) Cell { return Cell{Field: field, Kind: KindString} }
func AnyCell(field string) Cell    { return Cell{Field: field, Kind: KindAny} }

// HashedStringCell reads a string column and replaces it with h's digest, so the raw
// value never leaves the device in this field.
func HashedStringCell(field string, h Hasher) Cell {
	return Cell{Field: field, Kind: KindHashedString, hasher: h}
}

func convert(kind Kind, raw interface{}) (interface{}, error) {
	switch kind {
	case KindBool:
		return toBool(raw)
	case KindInt:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}

		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d overflows int", errConversion, n)
		}

		return int32(n), nil
	case KindLong:
		return toInt64(raw)
	case KindDouble:
		return toFloat64(raw)
	case KindString, KindHashedString:
		return toString(raw)
	case KindAny:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", errConversion, kind)
	}
}

func toBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a bool", errConversion, v)
		}

		return b, nil
	default:
		n, err := toInt64(raw)
		if err != nil {
			return false, fmt.Errorf("%w: %T is not a bool", errConversion, raw)
		}

		return n != 0, nil
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows long", errConversion, v)
		}

		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v is not integral", errConversion, v)
		}

		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", errConversion, v)
		}

		return n, nil
	case time.Time:
		return v.UnixMilli(), nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", errConversion, raw)
	}
}

func toFloat64(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errConversion, v)
		}

		return f, nil
	default:
		n, err := toInt64(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %T is not a number", errConversion, raw)
		}

		return float64(n), nil
	}
}

func toString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", errConversion, raw)
	}
}
