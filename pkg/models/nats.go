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
	"errors"
	"fmt"
)

var errNATSURLRequired = errors.New("nats url is required")

// NATSConfig configures NATS connectivity.
type NATSConfig struct {
	URL       string          `json:"url" yaml:"url"`
	Domain    string          `json:"domain,omitempty" yaml:"domain,omitempty"`
	CredsFile string          `json:"creds_file,omitempty" yaml:"creds_file,omitempty"`
	NKeySeed  string          `json:"nkey_seed_file,omitempty" yaml:"nkey_seed_file,omitempty"`
	Security  *SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`

	// Stream receives probe data messages when set; otherwise data goes out as core NATS publishes.
	Stream   string `json:"stream,omitempty" yaml:"stream,omitempty"`
	KVBucket string `json:"kv_bucket,omitempty" yaml:"kv_bucket,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"` // json or msgpack
}

// Validate ensures the NATS configuration is valid.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return errNATSURLRequired
	}

	switch c.Encoding {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("unsupported nats encoding %q", c.Encoding)
	}

	return nil
}

// RedisConfig configures the optional Redis baseline store.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}
