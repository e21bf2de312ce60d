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

// DatabaseConfig configures the Postgres store used for local data and table probes.
type DatabaseConfig struct {
	Host            string     `json:"host" yaml:"host"`
	Port            int        `json:"port,omitempty" yaml:"port,omitempty"`
	Database        string     `json:"database" yaml:"database"`
	Username        string     `json:"username" yaml:"username"`
	Password        string     `json:"password,omitempty" yaml:"password,omitempty"`
	SSLMode         string     `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	MaxConnections  int32      `json:"max_connections,omitempty" yaml:"max_connections,omitempty"`
	MinConnections  int32      `json:"min_connections,omitempty" yaml:"min_connections,omitempty"`
	MaxConnLifetime Duration   `json:"max_conn_lifetime,omitempty" yaml:"max_conn_lifetime,omitempty"`
	HealthCheck     Duration   `json:"health_check_period,omitempty" yaml:"health_check_period,omitempty"`
	Schema          string     `json:"schema,omitempty" yaml:"schema,omitempty"`
	TLS             *TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}
