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

// Package probes holds the built-in probe catalog: a factory per probe type, turning a
// configured probe entry into lifecycle hooks.
package probes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/scan"
	"github.com/carverauto/fieldprobe/pkg/scan/geo"
	"github.com/carverauto/fieldprobe/pkg/scan/pgsource"
)

var (
	errNoFactory       = errors.New("no probe factory found")
	errHasherRequired  = errors.New("device hasher is required")
	errDatabaseMissing = errors.New("database connection is required")
	errInvalidDetails  = errors.New("invalid probe details")
	errDuplicateID     = errors.New("duplicate probe id")
)

// Built-in probe types.
const (
	TypeProcess     = "process"
	TypeConnections = "connections"
	TypeHost        = "host"
	TypeTable       = "table"
	TypeSNMP        = "snmp"
)

// Spec is one configured probe entry.
type Spec struct {
	Type     string                 `json:"type" yaml:"type"`
	ID       models.ProbeID         `json:"id,omitempty" yaml:"id,omitempty"`
	DataName string                 `json:"data_name,omitempty" yaml:"data_name,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

func (s Spec) idOr(def models.ProbeID) models.ProbeID {
	if s.ID != "" {
		return s.ID
	}

	return def
}

func (s Spec) dataNameOr(def string) string {
	if s.DataName != "" {
		return s.DataName
	}

	return def
}

// decodeDetails copies the free-form details into dst, rejecting unknown keys.
func (s Spec) decodeDetails(dst interface{}) error {
	if len(s.Details) == 0 {
		return nil
	}

	raw, err := json.Marshal(s.Details)
	if err != nil {
		return fmt.Errorf("%w for %s: %w", errInvalidDetails, s.Type, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w for %s: %w", errInvalidDetails, s.Type, err)
	}

	return nil
}

// Deps are the shared resources factories may draw on. Unset fields disable the probes
// (or the optional cells) that need them.
type Deps struct {
	Hasher scan.Hasher
	Geo    geo.CountryLookup
	DB     pgsource.Querier
	Logger logger.Logger
}

func (d Deps) scanOptions(extra ...scan.Option) []scan.Option {
	opts := make([]scan.Option, 0, len(extra)+1)
	if d.Logger != nil {
		opts = append(opts, scan.WithLogger(d.Logger))
	}

	return append(opts, extra...)
}

// Factory builds the hooks of one probe.
type Factory func(ctx context.Context, spec Spec, deps Deps) (probe.Hooks, error)

// Catalog maps probe types to factories.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog returns a catalog with every built-in probe type registered.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}

	c.Register(TypeProcess, newProcessProbe)
	c.Register(TypeConnections, newConnectionsProbe)
	c.Register(TypeHost, newHostProbe)
	c.Register(TypeTable, newTableProbe)
	c.Register(TypeSNMP, newSNMPProbe)

	return c
}

// Register adds or replaces the factory for probeType.
func (c *Catalog) Register(probeType string, f Factory) {
	c.factories[probeType] = f
}

// Types lists the registered probe types in sorted order.
func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.factories))
	for t := range c.factories {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// Build creates the hooks for spec.
func (c *Catalog) Build(ctx context.Context, spec Spec, deps Deps) (probe.Hooks, error) {
	f, ok := c.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoFactory, spec.Type)
	}

	return f(ctx, spec, deps)
}

// BuildAll creates hooks for every spec. On failure, hooks already built are stopped so
// their resources are released, and the build error is returned with any stop errors.
func (c *Catalog) BuildAll(ctx context.Context, specs []Spec, deps Deps) ([]probe.Hooks, error) {
	out := make([]probe.Hooks, 0, len(specs))
	seen := make(map[models.ProbeID]struct{}, len(specs))

	for _, spec := range specs {
		hooks, err := c.Build(ctx, spec, deps)
		if err == nil {
			if _, dup := seen[hooks.ID()]; dup {
				err = fmt.Errorf("%w: %s", errDuplicateID, hooks.ID())
				out = append(out, hooks)
			}
		}

		if err != nil {
			errs := []error{err}
			for _, h := range out {
				errs = append(errs, h.OnStop(ctx))
			}

			return nil, errors.Join(errs...)
		}

		seen[hooks.ID()] = struct{}{}
		out = append(out, hooks)
	}

	return out, nil
}
