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

package logger

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"google.golang.org/grpc/credentials"
)

var errFailedToParseCACert = errors.New("failed to parse CA certificate")

// TLSConfig points at PEM files for the OTLP collector connection.
type TLSConfig struct {
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// collector holds the connection settings shared by the log, metric and trace exporters.
type collector struct {
	endpoint string
	headers  map[string]string
	insecure bool
	creds    credentials.TransportCredentials
}

func newCollector(config *OTelConfig) (*collector, error) {
	c := &collector{
		endpoint: config.Endpoint,
		headers:  config.Headers,
		insecure: config.Insecure,
	}

	if c.insecure || config.TLS == nil {
		return c, nil
	}

	tlsConfig, err := loadTLSConfig(config.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to setup TLS configuration: %w", err)
	}

	c.creds = credentials.NewTLS(tlsConfig)

	return c, nil
}

func (c *collector) logOptions() []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlploggrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(c.headers))
	}

	return opts
}

func (c *collector) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(c.headers))
	}

	return opts
}

func (c *collector) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(c.headers))
	}

	return opts
}

func loadTLSConfig(files *TLSConfig) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if files.CertFile != "" && files.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{cert}
	}

	if files.CAFile == "" {
		return config, nil
	}

	caPEM, err := os.ReadFile(files.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errFailedToParseCACert
	}

	config.RootCAs = pool

	return config, nil
}
