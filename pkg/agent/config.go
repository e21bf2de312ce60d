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

package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fieldprobe/pkg/capability"
	"github.com/carverauto/fieldprobe/pkg/kv"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probes"
)

// Baseline KV backends.
const (
	BaselineNATS  = "nats"
	BaselineRedis = "redis"
)

const (
	defaultAgentID        = "fieldprobe-agent"
	defaultStopTimeout    = 10 * time.Second
	defaultSchedulerTick  = 5 * time.Second
	defaultKVBucket       = "fieldprobe-baseline"
	defaultHTTPTimeout    = 30 * time.Second
	defaultLoopBufferSize = 64
)

var (
	errNATSRequired       = errors.New("nats configuration is required")
	errConfigURLRequired  = errors.New("config_url is required")
	errDeviceSecret       = errors.New("device_secret is required")
	errNoProbes           = errors.New("at least one probe must be configured")
	errUnknownBaseline    = errors.New("unknown baseline backend")
	errRedisRequired      = errors.New("redis configuration is required for the redis baseline backend")
	errProbeTypeMissing   = errors.New("probe entry has no type")
	errNegativeDurations  = errors.New("durations must not be negative")
	errDatabaseIncomplete = errors.New("database host and name are required")
)

// BaselineConfig selects where the last applied configuration is kept.
type BaselineConfig struct {
	Backend string              `json:"backend,omitempty" yaml:"backend,omitempty"`
	Key     string              `json:"key,omitempty" yaml:"key,omitempty"`
	Redis   *models.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// ServerConfig is the agent configuration document.
type ServerConfig struct {
	AgentID        string                 `json:"agent_id" yaml:"agent_id"`
	AppID          string                 `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	DeviceSecret   string                 `json:"device_secret" yaml:"device_secret"`
	NATS           *models.NATSConfig     `json:"nats" yaml:"nats"`
	ConfigURL      string                 `json:"config_url" yaml:"config_url"`
	ConfigSecurity *models.SecurityConfig `json:"config_security,omitempty" yaml:"config_security,omitempty"`
	ConfigTimeout  models.Duration        `json:"config_timeout,omitempty" yaml:"config_timeout,omitempty"`
	UpdatePeriod   models.Duration        `json:"update_period,omitempty" yaml:"update_period,omitempty"`
	Baseline       BaselineConfig         `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Database       *models.DatabaseConfig `json:"database,omitempty" yaml:"database,omitempty"`
	Probes         []probes.Spec          `json:"probes" yaml:"probes"`
	Capabilities   capability.Config      `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	GeoDatabase    string                 `json:"geo_database,omitempty" yaml:"geo_database,omitempty"`
	StopTimeout    models.Duration        `json:"stop_timeout,omitempty" yaml:"stop_timeout,omitempty"`
	SchedulerTick  models.Duration        `json:"scheduler_tick,omitempty" yaml:"scheduler_tick,omitempty"`
	Logging        *logger.Config         `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate implements config.Validator and fills defaults.
func (c *ServerConfig) Validate() error {
	if c.AgentID == "" {
		c.AgentID = defaultAgentID
	}

	if c.AppID == "" {
		c.AppID = c.AgentID
	}

	if c.NATS == nil {
		return errNATSRequired
	}

	if err := c.NATS.Validate(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}

	if c.ConfigURL == "" {
		return errConfigURLRequired
	}

	if c.DeviceSecret == "" {
		return errDeviceSecret
	}

	if len(c.Probes) == 0 {
		return errNoProbes
	}

	for i, p := range c.Probes {
		if p.Type == "" {
			return fmt.Errorf("probes[%d]: %w", i, errProbeTypeMissing)
		}
	}

	switch c.Baseline.Backend {
	case "":
		c.Baseline.Backend = BaselineNATS
	case BaselineNATS:
	case BaselineRedis:
		if c.Baseline.Redis == nil || c.Baseline.Redis.Addr == "" {
			return errRedisRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBaseline, c.Baseline.Backend)
	}

	if c.Baseline.Key != "" {
		if err := kv.ValidateKey(c.Baseline.Key); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}

	if c.Database != nil && (c.Database.Host == "" || c.Database.Database == "") {
		return errDatabaseIncomplete
	}

	if c.StopTimeout < 0 || c.SchedulerTick < 0 || c.UpdatePeriod < 0 || c.ConfigTimeout < 0 {
		return errNegativeDurations
	}

	if c.StopTimeout == 0 {
		c.StopTimeout = models.Duration(defaultStopTimeout)
	}

	if c.SchedulerTick == 0 {
		c.SchedulerTick = models.Duration(defaultSchedulerTick)
	}

	if c.ConfigTimeout == 0 {
		c.ConfigTimeout = models.Duration(defaultHTTPTimeout)
	}

	return nil
}
