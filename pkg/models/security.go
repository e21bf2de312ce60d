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

// SecurityMode defines the type of security to use.
type SecurityMode string

const (
	SecurityModeNone   SecurityMode = "none"
	SecurityModeMTLS   SecurityMode = "mtls"
	SecurityModeSpiffe SecurityMode = "spiffe"
)

type TLSConfig struct {
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file" yaml:"ca_file"`
}

// SecurityConfig selects how the agent authenticates to its configuration server and broker.
type SecurityConfig struct {
	Mode           SecurityMode `json:"mode" yaml:"mode"`
	CertDir        string       `json:"cert_dir" yaml:"cert_dir"`
	ServerName     string       `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	TLS            TLSConfig    `json:"tls" yaml:"tls"`
	TrustDomain    string       `json:"trust_domain,omitempty" yaml:"trust_domain,omitempty"`         // For SPIFFE
	ServerSPIFFEID string       `json:"server_spiffe_id,omitempty" yaml:"server_spiffe_id,omitempty"` // Expected SPIFFE ID of the server
	WorkloadSocket string       `json:"workload_socket,omitempty" yaml:"workload_socket,omitempty"`   // For SPIFFE
}
