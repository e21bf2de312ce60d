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

package geo

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

type mapLookup map[string]string

func (m mapLookup) Country(ip net.IP) (string, error) {
	code, ok := m[ip.String()]
	if !ok {
		return "", errors.New("not found")
	}

	return code, nil
}

func TestCountryCell(t *testing.T) {
	cell := CountryCell("country", "raddr_ip", mapLookup{"1.1.1.1": "AU"})
	assert.Equal(t, "raddr_ip", cell.Column())

	tests := []struct {
		name    string
		row     scan.MapRow
		want    interface{}
		present bool
		wantErr bool
	}{
		{name: "public", row: scan.MapRow{"raddr_ip": "1.1.1.1"}, want: "AU", present: true},
		{name: "private", row: scan.MapRow{"raddr_ip": "10.1.2.3"}},
		{name: "loopback", row: scan.MapRow{"raddr_ip": "::1"}},
		{name: "unknown", row: scan.MapRow{"raddr_ip": "8.8.8.8"}},
		{name: "missing", row: scan.MapRow{}},
		{name: "garbage", row: scan.MapRow{"raddr_ip": "not-an-ip"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := cell.Extract(tt.row)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidIP)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.Error(t, err)
}
