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
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

func TestNewSecurityProviderPlaintext(t *testing.T) {
	for _, sec := range []*models.SecurityConfig{nil, {}, {Mode: models.SecurityModeNone}} {
		p, err := NewSecurityProvider(context.Background(), sec, logger.NewTestLogger())
		require.NoError(t, err)

		conf, err := p.ClientTLS(context.Background())
		require.NoError(t, err)
		assert.Nil(t, conf)
		require.NoError(t, p.Close())
	}
}

func TestNewSecurityProviderUnknownMode(t *testing.T) {
	_, err := NewSecurityProvider(context.Background(), &models.SecurityConfig{Mode: "kerberos"}, logger.NewTestLogger())
	require.ErrorIs(t, err, errUnknownSecurityMode)
}

func TestMTLSProviderLoadsRelativePaths(t *testing.T) {
	pki := newTestPKI(t)
	pki.issue(t, "client", x509.ExtKeyUsageClientAuth)

	sec := &models.SecurityConfig{
		Mode:       models.SecurityModeMTLS,
		CertDir:    pki.dir,
		ServerName: "config.example",
		TLS:        models.TLSConfig{CertFile: "client.pem", KeyFile: "client-key.pem", CAFile: "ca.pem"},
	}

	p, err := NewSecurityProvider(context.Background(), sec, logger.NewTestLogger())
	require.NoError(t, err)

	conf, err := p.ClientTLS(context.Background())
	require.NoError(t, err)
	require.Len(t, conf.Certificates, 1)
	assert.NotNil(t, conf.RootCAs)
	assert.Equal(t, "config.example", conf.ServerName)
	assert.Equal(t, "client.pem", sec.TLS.CertFile, "caller config is not rewritten")
}

func TestMTLSProviderErrors(t *testing.T) {
	pki := newTestPKI(t)
	pki.issue(t, "client", x509.ExtKeyUsageClientAuth)

	_, err := NewMTLSProvider(&models.SecurityConfig{Mode: models.SecurityModeMTLS}, logger.NewTestLogger())
	require.ErrorIs(t, err, errMissingClientCert)

	bad := filepath.Join(pki.dir, "bad-ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not pem"), 0o600))

	_, err = NewMTLSProvider(&models.SecurityConfig{
		CertDir: pki.dir,
		TLS:     models.TLSConfig{CertFile: "client.pem", KeyFile: "client-key.pem", CAFile: "bad-ca.pem"},
	}, logger.NewTestLogger())
	require.ErrorIs(t, err, errCAParsingFailed)

	_, err = NewMTLSProvider(&models.SecurityConfig{
		CertDir: pki.dir,
		TLS:     models.TLSConfig{CertFile: "missing.pem", KeyFile: "client-key.pem"},
	}, logger.NewTestLogger())
	require.Error(t, err)
}

func TestNormalizeServerSPIFFEID(t *testing.T) {
	td := spiffeid.RequireTrustDomainFromString("example.org")

	id, err := normalizeServerSPIFFEID("spiffe://other.org/config", nil)
	require.NoError(t, err)
	assert.Equal(t, "spiffe://other.org/config", id.String())

	id, err = normalizeServerSPIFFEID("config/server", &td)
	require.NoError(t, err)
	assert.Equal(t, "spiffe://example.org/config/server", id.String())

	_, err = normalizeServerSPIFFEID("config/server", nil)
	require.Error(t, err)
}

func TestParseSpiffeIdentityRejectsBadTrustDomain(t *testing.T) {
	_, _, err := parseSpiffeIdentity(&models.SecurityConfig{TrustDomain: "Not A Domain!"}, logger.NewTestLogger())
	require.ErrorIs(t, err, errInvalidTrustDomain)
}

func TestHTTPClientPlaintext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client, err := NewHTTPClient(context.Background(), nil, 0, logger.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.Equal(t, defaultHTTPTimeout, client.Timeout)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPClientMutualTLS(t *testing.T) {
	pki := newTestPKI(t)
	pki.issue(t, "server", x509.ExtKeyUsageServerAuth)
	pki.issue(t, "client", x509.ExtKeyUsageClientAuth)

	serverCert, err := tls.LoadX509KeyPair(filepath.Join(pki.dir, "server.pem"), filepath.Join(pki.dir, "server-key.pem"))
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.TLS.PeerCertificates[0].Subject.CommonName+" "+r.Proto)
	}))
	srv.EnableHTTP2 = true
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientCAs:    pki.caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}
	srv.StartTLS()
	defer srv.Close()

	client, err := NewHTTPClient(context.Background(), &models.SecurityConfig{
		Mode:    models.SecurityModeMTLS,
		CertDir: pki.dir,
		TLS:     models.TLSConfig{CertFile: "client.pem", KeyFile: "client-key.pem", CAFile: "ca.pem"},
	}, 0, logger.NewTestLogger())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "client HTTP/2.0", string(body))
}
