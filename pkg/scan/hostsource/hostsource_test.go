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

	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

var errGone = errors.New("process exited")

type fakeProcess struct {
	name string
	gone bool
}

func (p fakeProcess) NameWithContext(context.Context) (string, error) {
	if p.gone {
		return "", errGone
	}

	return p.name, nil
}

func (fakeProcess) PpidWithContext(context.Context) (int32, error)       { return 1, nil }
func (fakeProcess) UsernameWithContext(context.Context) (string, error)  { return "root", nil }
func (fakeProcess) StatusWithContext(context.Context) ([]string, error)  { return []string{"S"}, nil }
func (fakeProcess) CreateTimeWithContext(context.Context) (int64, error) { return 1700000000000, nil }
func (fakeProcess) CPUPercentWithContext(context.Context) (float64, error) {
	return 1.5, nil
}

func (fakeProcess) MemoryInfoWithContext(context.Context) (*process.MemoryInfoStat, error) {
	return &process.MemoryInfoStat{RSS: 4096}, nil
}

func (fakeProcess) NumThreadsWithContext(context.Context) (int32, error) { return 3, nil }

func TestProcessesScan(t *testing.T) {
	src := NewProcesses(func(context.Context) ([]ProcessHandle, []int32, error) {
		return []ProcessHandle{fakeProcess{name: "init"}, fakeProcess{gone: true}}, []int32{1, 99}, nil
	})

	s := scan.New(src, []scan.Cell{
		scan.IntCell(ColPID),
		scan.StringCell(ColName),
		scan.LongCell(ColMemoryRSS),
		scan.StringCell(ColStatus),
	})

	var names []interface{}

	for rec, err := range s.Records(context.Background()) {
		require.NoError(t, err)

		name, _ := rec.Get(ColName)
		names = append(names, name)

		rss, ok := rec.Get(ColMemoryRSS)
		require.True(t, ok)
		assert.Equal(t, int64(4096), rss)
	}

	assert.Equal(t, []interface{}{"init", nil}, names)
}

func TestProcessesListError(t *testing.T) {
	src := NewProcesses(func(context.Context) ([]ProcessHandle, []int32, error) {
		return nil, nil, errors.New("permission denied")
	})

	_, err := src.Query(context.Background(), nil)
	require.Error(t, err)
}

func TestConnectionsScan(t *testing.T) {
	var gotKind string

	src := NewConnections("", func(_ context.Context, kind string) ([]net.ConnectionStat, error) {
		gotKind = kind

		return []net.ConnectionStat{
			{Family: 2, Type: 1, Laddr: net.Addr{IP: "10.0.0.2", Port: 5555}, Raddr: net.Addr{IP: "1.1.1.1", Port: 443}, Status: "ESTABLISHED", Pid: 42},
			{Family: 10, Type: 2, Laddr: net.Addr{IP: "::", Port: 53}},
		}, nil
	})

	cur, err := src.Query(context.Background(), nil)
	require.NoError(t, err)

	defer func() { require.NoError(t, cur.Close()) }()

	require.True(t, cur.Next())

	row := cur.Row()
	v, ok := row.Value(ColRemoteIP)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1", v)

	v, _ = row.Value(ColFamily)
	assert.Equal(t, "ipv4", v)

	v, _ = row.Value(ColType)
	assert.Equal(t, "tcp", v)

	require.True(t, cur.Next())

	_, ok = cur.Row().Value(ColRemoteIP)
	assert.False(t, ok)

	_, ok = cur.Row().Value(ColConnPID)
	assert.False(t, ok)

	assert.False(t, cur.Next())
	assert.Equal(t, "inet", gotKind)
}
