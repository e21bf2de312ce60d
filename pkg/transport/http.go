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

package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPClient is an http.Client bound to the security provider that feeds its TLS config.
type HTTPClient struct {
	*http.Client
	provider Provider
}

// NewHTTPClient returns a client for sec. TLS modes negotiate HTTP/2 when the server offers it.
func NewHTTPClient(ctx context.Context, sec *models.SecurityConfig, timeout time.Duration, log logger.Logger) (*HTTPClient, error) {
	provider, err := NewSecurityProvider(ctx, sec, log)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := provider.ClientTLS(ctx)
	if err != nil {
		_ = provider.Close()

		return nil, err
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()

	if tlsConfig != nil {
		tr.TLSClientConfig = tlsConfig

		if err := http2.ConfigureTransport(tr); err != nil {
			_ = provider.Close()

			return nil, fmt.Errorf("failed to enable http2: %w", err)
		}
	}

	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPClient{
		Client:   &http.Client{Transport: tr, Timeout: timeout},
		provider: provider,
	}, nil
}

// Close releases idle connections and the security provider.
func (c *HTTPClient) Close() error {
	c.CloseIdleConnections()

	return c.provider.Close()
}
