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

package hostsource

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

func TestHostInfoSingleRow(t *testing.T) {
	src := NewHostInfo(func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{
			Hostname:      "edge-1",
			OS:            "linux",
			Platform:      "debian",
			KernelVersion: "6.1.0",
			Uptime:        3600,
			BootTime:      1700000000,
		}, nil
	})

	s := scan.New(src, []scan.Cell{
		scan.StringCell(ColHostname),
		scan.StringCell(ColOS),
		scan.LongCell(ColUptime),
		scan.StringCell(ColHostID),
	})

	var n int

	for rec, err := range s.Records(context.Background()) {
		require.NoError(t, err)

		n++

		v, ok := rec.Get(ColHostname)
		require.True(t, ok)
		assert.Equal(t, "edge-1", v)

		v, _ = rec.Get(ColUptime)
		assert.Equal(t, int64(3600), v)

		_, ok = rec.Get(ColHostID)
		assert.False(t, ok)
	}

	assert.Equal(t, 1, n)
}

func TestHostInfoError(t *testing.T) {
	src := NewHostInfo(func(context.Context) (*host.InfoStat, error) {
		return nil, errors.New("no /proc")
	})

	_, err := src.Query(context.Background(), nil)
	require.Error(t, err)
}
