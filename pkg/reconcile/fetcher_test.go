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
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/version"
)

const configDoc = `{"version":"3","update_period":"15m","data_requests":{"process":[{"period":60}],"connections":[{}]}}`

func serve(t *testing.T, status int, body, sum string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if sum != "" {
			w.Header().Set(HeaderConfigSHA256, sum)
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv.URL
}

func TestHTTPFetcherParsesConfiguration(t *testing.T) {
	digest := sha256.Sum256([]byte(configDoc))

	f, err := NewHTTPFetcher(serve(t, http.StatusOK, configDoc, hex.EncodeToString(digest[:])), nil, logger.NewTestLogger())
	require.NoError(t, err)

	got, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3", got.Version)
	assert.Equal(t, 15*time.Minute, got.Period(DefaultPeriod))
	assert.True(t, got.Has("process"))
	assert.True(t, got.Has("connections"))

	period, ok := got.DataRequests["process"][0].Float("period")
	require.True(t, ok)
	assert.InDelta(t, 60.0, period, 0)
}

func TestHTTPFetcherFailuresWrapConfigFetch(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		sum    string
	}{
		{"server error", http.StatusInternalServerError, configDoc, ""},
		{"checksum mismatch", http.StatusOK, configDoc, hex.EncodeToString(make([]byte, 32))},
		{"bad checksum encoding", http.StatusOK, configDoc, "zz"},
		{"invalid json", http.StatusOK, "{", ""},
		{"empty body", http.StatusOK, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewHTTPFetcher(serve(t, tc.status, tc.body, tc.sum), http.DefaultClient, logger.NewTestLogger())
			require.NoError(t, err)

			_, err = f.Fetch(context.Background())
			require.ErrorIs(t, err, ErrConfigFetch)
		})
	}
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, err := NewHTTPFetcher(url, nil, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.ErrorIs(t, err, ErrConfigFetch)
}

func TestNewHTTPFetcherRequiresURL(t *testing.T) {
	_, err := NewHTTPFetcher("", nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errEmptyURL)
}

func TestHTTPFetcherSendsAgentHeaders(t *testing.T) {
	var ua, accept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua, accept = r.UserAgent(), r.Header.Get("Accept")
		_, _ = w.Write([]byte(configDoc))
	}))
	t.Cleanup(srv.Close)

	f, err := NewHTTPFetcher(srv.URL, srv.Client(), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, version.UserAgent("agent"), ua)
	assert.Equal(t, "application/json", accept)
}
