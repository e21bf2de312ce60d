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

package reconcile

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/carverauto/fieldprobe/pkg/hashutil"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/version"
)

const (
	// HeaderConfigSHA256 optionally carries the SHA-256 of the response body.
	HeaderConfigSHA256 = "X-Config-SHA256"

	maxConfigBytes = 4 << 20
)

// HTTPFetcher GETs the configuration document from a URL.
type HTTPFetcher struct {
	url    string
	client *http.Client
	logger logger.Logger
}

// NewHTTPFetcher returns a fetcher for url using client.
func NewHTTPFetcher(url string, client *http.Client, log logger.Logger) (*HTTPFetcher, error) {
	if url == "" {
		return nil, errEmptyURL
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPFetcher{url: url, client: client, logger: log}, nil
}

// Fetch downloads and parses the configuration. Every failure wraps ErrConfigFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*models.Configuration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("agent"))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w: %s", ErrConfigFetch, errUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrConfigFetch, err)
	}

	if sum := resp.Header.Get(HeaderConfigSHA256); sum != "" {
		if err := hashutil.VerifyPayload(sum, body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigFetch, err)
		}
	}

	cfg, err := models.ParseConfiguration(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigFetch, err)
	}

	f.logger.Debug().
		Str("url", f.url).
		Str("version", cfg.Version).
		Int("probes", len(cfg.DataRequests)).
		Msg("Fetched configuration")

	return cfg, nil
}
