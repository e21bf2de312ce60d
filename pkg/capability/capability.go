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

// Package capability decides whether the device grants what a probe needs before it is
// enabled. Host capabilities are probed live through gopsutil; everything else must be
// granted explicitly in the agent configuration.
package capability

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/carverauto/fieldprobe/pkg/logger"
)

// Built-in capability names.
const (
	ProcessTable = "host.processes"
	SocketTable  = "host.connections"
	HostInfo     = "host.info"
)

// CheckFunc probes one capability.
type CheckFunc func(ctx context.Context) error

// Config lists explicit grants and denials. Denials win over grants and live checks.
type Config struct {
	Granted []string `json:"granted,omitempty" yaml:"granted,omitempty"`
	Denied  []string `json:"denied,omitempty" yaml:"denied,omitempty"`
}

// HostChecker implements probe.CapabilityChecker.
type HostChecker struct {
	log     logger.Logger
	checks  map[string]CheckFunc
	granted map[string]struct{}
	denied  map[string]struct{}

	mu    sync.Mutex
	cache map[string]bool
}

// NewHostChecker builds a checker with the gopsutil-backed host checks.
func NewHostChecker(cfg Config, log logger.Logger) *HostChecker {
	c := &HostChecker{
		log:     log,
		checks:  make(map[string]CheckFunc),
		granted: toSet(cfg.Granted),
		denied:  toSet(cfg.Denied),
		cache:   make(map[string]bool),
	}

	c.Register(ProcessTable, func(ctx context.Context) error {
		_, err := process.PidsWithContext(ctx)
		return err
	})

	c.Register(SocketTable, func(ctx context.Context) error {
		_, err := net.ConnectionsMaxWithContext(ctx, "inet", 1)
		return err
	})

	c.Register(HostInfo, func(ctx context.Context) error {
		_, err := host.InfoWithContext(ctx)
		return err
	})

	return c
}

// Register adds or replaces a live check.
func (c *HostChecker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = fn
	delete(c.cache, name)
}

// HasCapabilities reports whether every required capability is available. Successful
// live checks are cached; failures are retried on the next call.
func (c *HostChecker) HasCapabilities(ctx context.Context, required []string) bool {
	for _, name := range required {
		if !c.has(ctx, name) {
			c.log.Info().Str("capability", name).Msg("Capability unavailable")
			return false
		}
	}

	return true
}

func (c *HostChecker) has(ctx context.Context, name string) bool {
	if _, ok := c.denied[name]; ok {
		return false
	}

	if _, ok := c.granted[name]; ok {
		return true
	}

	c.mu.Lock()
	ok, cached := c.cache[name]
	fn := c.checks[name]
	c.mu.Unlock()

	if cached {
		return ok
	}

	if fn == nil {
		return false
	}

	if err := fn(ctx); err != nil {
		c.log.Debug().Err(err).Str("capability", name).Msg("Capability check failed")
		return false
	}

	c.mu.Lock()
	c.cache[name] = true
	c.mu.Unlock()

	return true
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}

	return out
}
