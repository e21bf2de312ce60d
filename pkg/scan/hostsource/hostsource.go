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

// Package hostsource exposes the host's process and socket tables as scan data sources.
package hostsource

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

// Process table columns.
const (
	ColPID        = "pid"
	ColPPID       = "ppid"
	ColName       = "name"
	ColUsername   = "username"
	ColStatus     = "status"
	ColCreateTime = "create_time"
	ColCPUPercent = "cpu_percent"
	ColMemoryRSS  = "memory_rss"
	ColNumThreads = "num_threads"
)

// Socket table columns.
const (
	ColFamily     = "family"
	ColType       = "type"
	ColLocalIP    = "laddr_ip"
	ColLocalPort  = "laddr_port"
	ColRemoteIP   = "raddr_ip"
	ColRemotePort = "raddr_port"
	ColConnState  = "status"
	ColConnPID    = "pid"
)

// ProcessHandle is the subset of *process.Process the process table reads.
type ProcessHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	PpidWithContext(ctx context.Context) (int32, error)
	UsernameWithContext(ctx context.Context) (string, error)
	StatusWithContext(ctx context.Context) ([]string, error)
	CreateTimeWithContext(ctx context.Context) (int64, error)
	CPUPercentWithContext(ctx context.Context) (float64, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
	NumThreadsWithContext(ctx context.Context) (int32, error)
}

// ProcessLister enumerates processes.
type ProcessLister func(ctx context.Context) ([]ProcessHandle, []int32, error)

// ConnectionLister enumerates sockets of the given kind ("inet", "tcp", "udp", ...).
type ConnectionLister func(ctx context.Context, kind string) ([]net.ConnectionStat, error)

func listProcesses(ctx context.Context) ([]ProcessHandle, []int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	handles := make([]ProcessHandle, len(procs))
	pids := make([]int32, len(procs))

	for i, p := range procs {
		handles[i] = p
		pids[i] = p.Pid
	}

	return handles, pids, nil
}

// Processes is a DataSource over the host process table.
type Processes struct {
	list ProcessLister
}

// NewProcesses returns the process table source. A nil lister uses gopsutil.
func NewProcesses(list ProcessLister) *Processes {
	if list == nil {
		list = listProcesses
	}

	return &Processes{list: list}
}

func (s *Processes) Query(ctx context.Context, _ []string) (scan.Cursor, error) {
	handles, pids, err := s.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return &processCursor{ctx: ctx, handles: handles, pids: pids, pos: -1}, nil
}

type processCursor struct {
	ctx     context.Context
	handles []ProcessHandle
	pids    []int32
	pos     int
}

func (c *processCursor) Next() bool {
	if c.handles == nil || c.pos+1 >= len(c.handles) {
		return false
	}

	c.pos++

	return true
}

func (c *processCursor) Row() scan.Row {
	return processRow{ctx: c.ctx, p: c.handles[c.pos], pid: c.pids[c.pos]}
}

func (*processCursor) Err() error { return nil }

func (c *processCursor) Close() error {
	c.handles = nil
	c.pids = nil

	return nil
}

// processRow reads attributes on demand. Processes can exit mid-scan, so lookup
// failures make a column absent rather than failing the row.
type processRow struct {
	ctx context.Context
	p   ProcessHandle
	pid int32
}

func (r processRow) Value(column string) (interface{}, bool) {
	var (
		v   interface{}
		err error
	)

	switch column {
	case ColPID:
		return r.pid, true
	case ColPPID:
		v, err = r.p.PpidWithContext(r.ctx)
	case ColName:
		v, err = r.p.NameWithContext(r.ctx)
	case ColUsername:
		v, err = r.p.UsernameWithContext(r.ctx)
	case ColStatus:
		var status []string

		status, err = r.p.StatusWithContext(r.ctx)
		if err == nil && len(status) > 0 {
			v = status[0]
		}
	case ColCreateTime:
		v, err = r.p.CreateTimeWithContext(r.ctx)
	case ColCPUPercent:
		v, err = r.p.CPUPercentWithContext(r.ctx)
	case ColMemoryRSS:
		var mem *process.MemoryInfoStat

		mem, err = r.p.MemoryInfoWithContext(r.ctx)
		if err == nil && mem != nil {
			v = mem.RSS
		}
	case ColNumThreads:
		v, err = r.p.NumThreadsWithContext(r.ctx)
	default:
		return nil, false
	}

	if err != nil || v == nil {
		return nil, false
	}

	return v, true
}

// Connections is a DataSource over the host socket table.
type Connections struct {
	kind string
	list ConnectionLister
}

// NewConnections returns the socket table source for kind. A nil lister uses gopsutil.
func NewConnections(kind string, list ConnectionLister) *Connections {
	if kind == "" {
		kind = "inet"
	}

	if list == nil {
		list = net.ConnectionsWithContext
	}

	return &Connections{kind: kind, list: list}
}

func (s *Connections) Query(ctx context.Context, _ []string) (scan.Cursor, error) {
	conns, err := s.list(ctx, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	return &connCursor{conns: conns, pos: -1}, nil
}

type connCursor struct {
	conns []net.ConnectionStat
	pos   int
}

func (c *connCursor) Next() bool {
	if c.conns == nil || c.pos+1 >= len(c.conns) {
		return false
	}

	c.pos++

	return true
}

func (c *connCursor) Row() scan.Row { return connRow(c.conns[c.pos]) }

func (*connCursor) Err() error { return nil }

func (c *connCursor) Close() error {
	c.conns = nil
	return nil
}

type connRow net.ConnectionStat

func (r connRow) Value(column string) (interface{}, bool) {
	switch column {
	case ColFamily:
		return familyName(r.Family), true
	case ColType:
		return typeName(r.Type), true
	case ColLocalIP:
		return r.Laddr.IP, r.Laddr.IP != ""
	case ColLocalPort:
		return r.Laddr.Port, true
	case ColRemoteIP:
		return r.Raddr.IP, r.Raddr.IP != ""
	case ColRemotePort:
		return r.Raddr.Port, r.Raddr.IP != ""
	case ColConnState:
		return r.Status, r.Status != ""
	case ColConnPID:
		return r.Pid, r.Pid > 0
	default:
		return nil, false
	}
}

func familyName(f uint32) string {
	switch f {
	case 2:
		return "ipv4"
	case 10, 23, 30:
		return "ipv6"
	case 1:
		return "unix"
	default:
		return fmt.Sprintf("af%d", f)
	}
}

func typeName(t uint32) string {
	switch t {
	case 1:
		return "tcp"
	case 2:
		return "udp"
	default:
		return fmt.Sprintf("type%d", t)
	}
}
