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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var errEmptyConfiguration = errors.New("empty configuration document")

// Configuration is the remotely supplied desired state: which probes to run with which
// parameter sets. The last applied one is the Baseline.
type Configuration struct {
	Version      string               `json:"version,omitempty"`
	UpdatePeriod Duration             `json:"update_period,omitempty"`
	DataRequests map[ProbeID][]Params `json:"data_requests"`
}

// ParseConfiguration decodes a configuration document.
func ParseConfiguration(data []byte) (*Configuration, error) {
	if len(data) == 0 {
		return nil, errEmptyConfiguration
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.DataRequests == nil {
		cfg.DataRequests = make(map[ProbeID][]Params)
	}

	return &cfg, nil
}

// ProbeIDs returns the probes named in the configuration, sorted.
func (c *Configuration) ProbeIDs() []ProbeID {
	if c == nil {
		return nil
	}

	ids := make([]ProbeID, 0, len(c.DataRequests))
	for id := range c.DataRequests {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Has reports whether the configuration names probe id.
func (c *Configuration) Has(id ProbeID) bool {
	if c == nil {
		return false
	}

	_, ok := c.DataRequests[id]

	return ok
}

// Period returns the update period, or fallback when none is set.
func (c *Configuration) Period(fallback time.Duration) time.Duration {
	if c == nil || c.UpdatePeriod <= 0 {
		return fallback
	}

	return time.Duration(c.UpdatePeriod)
}

// Equal compares two configurations by content. The order of a probe's parameter sets
// does not matter.
func (c *Configuration) Equal(other *Configuration) bool {
	if c == nil || other == nil {
		return c == other
	}

	if c.Version != other.Version || c.UpdatePeriod != other.UpdatePeriod {
		return false
	}

	if len(c.DataRequests) != len(other.DataRequests) {
		return false
	}

	for id := range c.DataRequests {
		if !other.Has(id) || !c.SameRequests(id, other) {
			return false
		}
	}

	return true
}

// SameRequests reports whether both configurations ask probe id for the same
// parameter sets, ignoring order.
func (c *Configuration) SameRequests(id ProbeID, other *Configuration) bool {
	a, b := c.canonicalRequests(id), other.canonicalRequests(id)
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func (c *Configuration) canonicalRequests(id ProbeID) []string {
	if c == nil {
		return nil
	}

	params := c.DataRequests[id]
	out := make([]string, len(params))

	for i, p := range params {
		out[i] = p.Canonical()
	}

	sort.Strings(out)

	return out
}
