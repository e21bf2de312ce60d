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

// Package geo maps IP address columns to coarse location values.
package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

var errInvalidIP = errors.New("invalid ip address")

// CountryLookup resolves an address to an ISO 3166-1 alpha-2 code ("" when unknown).
type CountryLookup interface {
	Country(ip net.IP) (string, error)
}

// Reader is a CountryLookup backed by a MaxMind country or city database.
type Reader struct {
	db *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path.
func Open(path string) (*Reader, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}

	return &Reader{db: db}, nil
}

func (r *Reader) Country(ip net.IP) (string, error) {
	var rec countryRecord
	if err := r.db.Lookup(ip, &rec); err != nil {
		return "", err
	}

	return rec.Country.ISOCode, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// CountryCell emits the country of the address found in column. Private, loopback and
// unknown addresses leave the field absent.
func CountryCell(field, column string, lookup CountryLookup) scan.Cell {
	return scan.NewCell(field, column, scan.KindString, func(row scan.Row) (interface{}, bool, error) {
		raw, ok := row.Value(column)
		if !ok || raw == nil {
			return nil, false, nil
		}

		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, false, nil
		}

		ip := net.ParseIP(s)
		if ip == nil {
			return nil, false, fmt.Errorf("%w: %q", errInvalidIP, s)
		}

		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return nil, false, nil
		}

		code, err := lookup.Country(ip)
		if err != nil || code == "" {
			return nil, false, nil //nolint:nilerr // lookup misses are absent values
		}

		return code, true, nil
	})
}
