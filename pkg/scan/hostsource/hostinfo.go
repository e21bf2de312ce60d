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
	"fmt"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

// Host info columns.
const (
	ColHostname        = "hostname"
	ColOS              = "os"
	ColPlatform        = "platform"
	ColPlatformVersion = "platform_version"
	ColKernelVersion   = "kernel_version"
	ColKernelArch      = "kernel_arch"
	ColUptime          = "uptime"
	ColBootTime        = "boot_time"
	ColHostID          = "host_id"
)

// HostInfoFunc reads the host summary.
type HostInfoFunc func(ctx context.Context) (*host.InfoStat, error)

// HostInfo is a single-row DataSource describing the host itself.
type HostInfo struct {
	info HostInfoFunc
}

// NewHostInfo returns the host summary source. A nil func uses gopsutil.
func NewHostInfo(info HostInfoFunc) *HostInfo {
	if info == nil {
		info = host.InfoWithContext
	}

	return &HostInfo{info: info}
}

func (s *HostInfo) Query(ctx context.Context, _ []string) (scan.Cursor, error) {
	stat, err := s.info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}

	row := scan.MapRow{
		ColHostname:        stat.Hostname,
		ColOS:              stat.OS,
		ColPlatform:        stat.Platform,
		ColPlatformVersion: stat.PlatformVersion,
		ColKernelVersion:   stat.KernelVersion,
		ColKernelArch:      stat.KernelArch,
		ColUptime:          stat.Uptime,
		ColBootTime:        stat.BootTime,
	}

	if stat.HostID != "" {
		row[ColHostID] = stat.HostID
	}

	return &singleRowCursor{row: row}, nil
}

type singleRowCursor struct {
	row  scan.Row
	done bool
}

func (c *singleRowCursor) Next() bool {
	if c.done || c.row == nil {
		return false
	}

	c.done = true

	return true
}

func (c *singleRowCursor) Row() scan.Row { return c.row }

func (*singleRowCursor) Err() error { return nil }

func (c *singleRowCursor) Close() error {
	c.row = nil
	return nil
}
