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

	"github.com/carverauto/fieldprobe/pkg/capability"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/scan"
	"github.com/carverauto/fieldprobe/pkg/scan/geo"
	"github.com/carverauto/fieldprobe/pkg/scan/hostsource"
)

const (
	// ParamKind selects the socket family scanned by the connections probe.
	ParamKind = "kind"

	defaultConnectionKind = "inet"
)

// Data sources, replaceable in tests.
var (
	processSource = func() scan.DataSource { return hostsource.NewProcesses(nil) }
	connSource    = func(kind string) scan.DataSource { return hostsource.NewConnections(kind, nil) }
	hostSource    = func() scan.DataSource { return hostsource.NewHostInfo(nil) }
)

func newProcessProbe(_ context.Context, spec Spec, deps Deps) (probe.Hooks, error) {
	if deps.Hasher == nil {
		return nil, errHasherRequired
	}

	cells := []scan.Cell{
		scan.IntCell(hostsource.ColPID),
		scan.IntCell(hostsource.ColPPID),
		scan.StringCell(hostsource.ColName),
		scan.HashedStringCell(hostsource.ColUsername, deps.Hasher),
		scan.StringCell(hostsource.ColStatus),
		scan.LongCell(hostsource.ColCreateTime),
		scan.DoubleCell(hostsource.ColCPUPercent),
		scan.LongCell(hostsource.ColMemoryRSS),
		scan.IntCell(hostsource.ColNumThreads),
	}

	return probe.NewScanProbe(probe.ScanConfig{
		ID:           spec.idOr(TypeProcess),
		DataName:     spec.dataNameOr("processes"),
		Mode:         scan.Batch,
		Capabilities: []string{capability.ProcessTable},
		Source: func(context.Context, models.Params) (scan.DataSource, error) {
			return processSource(), nil
		},
		Cells:       func(models.Params) []scan.Cell { return cells },
		ScanOptions: deps.scanOptions(),
	}), nil
}

// The raw remote address never leaves the device: it is published hashed, and
// optionally as a country code.
func newConnectionsProbe(_ context.Context, spec Spec, deps Deps) (probe.Hooks, error) {
	if deps.Hasher == nil {
		return nil, errHasherRequired
	}

	cells := []scan.Cell{
		scan.StringCell(hostsource.ColFamily),
		scan.StringCell(hostsource.ColType),
		scan.StringCell(hostsource.ColLocalIP),
		scan.IntCell(hostsource.ColLocalPort),
		scan.HashedStringCell("raddr_hash", deps.Hasher).From(hostsource.ColRemoteIP),
		scan.IntCell(hostsource.ColRemotePort),
		scan.StringCell(hostsource.ColConnState),
		scan.IntCell(hostsource.ColConnPID),
	}

	if deps.Geo != nil {
		cells = append(cells, geo.CountryCell("raddr_country", hostsource.ColRemoteIP, deps.Geo))
	}

	return probe.NewScanProbe(probe.ScanConfig{
		ID:           spec.idOr(TypeConnections),
		DataName:     spec.dataNameOr("connections"),
		Mode:         scan.PerRow,
		Capabilities: []string{capability.SocketTable},
		Parameters: []models.Parameter{
			{Name: models.ParamPeriod, Default: probe.DefaultPeriod, Merge: models.MergeMin},
			{Name: ParamKind, Default: defaultConnectionKind, Merge: models.MergeLast},
		},
		Source: func(_ context.Context, params models.Params) (scan.DataSource, error) {
			kind, _ := params[ParamKind].(string)
			return connSource(kind), nil
		},
		Cells:       func(models.Params) []scan.Cell { return cells },
		ScanOptions: deps.scanOptions(),
	}), nil
}

func newHostProbe(_ context.Context, spec Spec, deps Deps) (probe.Hooks, error) {
	cells := []scan.Cell{
		scan.StringCell(hostsource.ColHostname),
		scan.StringCell(hostsource.ColOS),
		scan.StringCell(hostsource.ColPlatform),
		scan.StringCell(hostsource.ColPlatformVersion),
		scan.StringCell(hostsource.ColKernelVersion),
		scan.StringCell(hostsource.ColKernelArch),
		scan.LongCell(hostsource.ColUptime),
		scan.LongCell(hostsource.ColBootTime),
	}

	if deps.Hasher != nil {
		cells = append(cells, scan.HashedStringCell(hostsource.ColHostID, deps.Hasher))
	}

	return probe.NewScanProbe(probe.ScanConfig{
		ID:           spec.idOr(TypeHost),
		DataName:     spec.dataNameOr("host"),
		Mode:         scan.Batch,
		Capabilities: []string{capability.HostInfo},
		Source: func(context.Context, models.Params) (scan.DataSource, error) {
			return hostSource(), nil
		},
		Cells:       func(models.Params) []scan.Cell { return cells },
		ScanOptions: deps.scanOptions(),
	}), nil
}
