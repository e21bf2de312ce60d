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

package probe

import (
	"context"
	"errors"

	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/scan"
)

// DefaultPeriod is the default run period, in seconds, of scan probes.
const DefaultPeriod = 3600.0

var errNoSource = errors.New("scan probe has no data source")

// ScanConfig describes a probe whose run is a single scan of a data source.
type ScanConfig struct {
	ID           models.ProbeID
	DataName     string
	Mode         scan.Mode
	Parameters   []models.Parameter
	Capabilities []string
	// Source returns the data source for one run.
	Source func(ctx context.Context, params models.Params) (scan.DataSource, error)
	// Cells returns the extractors for one run, in output field order.
	Cells       func(params models.Params) []scan.Cell
	ScanOptions []scan.Option
	// Close releases long-lived resources when the probe stops.
	Close func() error
}

// ScanProbe is the Hooks implementation shared by the built-in table-like probes.
type ScanProbe struct {
	cfg ScanConfig
}

// NewScanProbe builds a scan probe. A period parameter defaulting to DefaultPeriod is
// declared unless cfg declares its own.
func NewScanProbe(cfg ScanConfig) *ScanProbe {
	if cfg.DataName == "" {
		cfg.DataName = string(cfg.ID)
	}

	hasPeriod := false

	for _, p := range cfg.Parameters {
		if p.Name == models.ParamPeriod {
			hasPeriod = true
		}
	}

	if !hasPeriod {
		cfg.Parameters = append([]models.Parameter{
			{Name: models.ParamPeriod, Default: DefaultPeriod, Merge: models.MergeMin},
		}, cfg.Parameters...)
	}

	return &ScanProbe{cfg: cfg}
}

func (s *ScanProbe) ID() models.ProbeID             { return s.cfg.ID }
func (s *ScanProbe) Parameters() []models.Parameter { return s.cfg.Parameters }
func (s *ScanProbe) RequiredCapabilities() []string { return s.cfg.Capabilities }

func (*ScanProbe) OnEnable(context.Context, models.Params) error { return nil }
func (*ScanProbe) OnDisable(context.Context) error               { return nil }

func (s *ScanProbe) OnRun(ctx context.Context, params models.Params, emitter Emitter) error {
	if s.cfg.Source == nil {
		return errNoSource
	}

	src, err := s.cfg.Source(ctx, params)
	if err != nil {
		return err
	}

	var cells []scan.Cell
	if s.cfg.Cells != nil {
		cells = s.cfg.Cells(params)
	}

	_, err = scan.Emit(ctx, scan.New(src, cells, s.cfg.ScanOptions...), s.cfg.Mode, s.cfg.ID, s.cfg.DataName, emitter)

	return err
}

func (s *ScanProbe) OnStop(context.Context) error {
	if s.cfg.Close == nil {
		return nil
	}

	return s.cfg.Close()
}
