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

// Package transport builds client-side TLS material and HTTP clients for the agent's
// outbound connections: the NATS bus and the remote configuration endpoint.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"

	"github.com/carverauto/fieldprobe/pkg/config"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

const defaultWorkloadSocket = "unix:/run/spire/sockets/agent.sock"

var (
	errUnknownSecurityMode   = errors.New("unknown security mode")
	errCAParsingFailed       = errors.New("failed to parse CA certificate")
	errMissingClientCert     = errors.New("mtls requires cert_file and key_file")
	errWorkloadClient        = errors.New("failed to create workload API client")
	errX509Source            = errors.New("failed to create X.509 source")
	errInvalidTrustDomain    = errors.New("invalid trust domain")
	errInvalidServerSPIFFEID = errors.New("invalid server SPIFFE ID")
)

// Provider supplies the client TLS configuration for one security mode. A nil config means
// plaintext.
type Provider interface {
	ClientTLS(ctx context.Context) (*tls.Config, error)
	Close() error
}

// NoSecurityProvider is used when security is unset or mode is none.
type NoSecurityProvider struct{}

func (NoSecurityProvider) ClientTLS(context.Context) (*tls.Config, error) { return nil, nil }

func (NoSecurityProvider) Close() error { return nil }

// MTLSProvider serves a static client certificate and CA pool loaded from disk.
type MTLSProvider struct {
	tlsConfig *tls.Config
}

// NewMTLSProvider loads the client certificate and CA named by cfg, resolving relative paths
// against cfg.CertDir.
func NewMTLSProvider(cfg *models.SecurityConfig, log logger.Logger) (*MTLSProvider, error) {
	paths := cfg.TLS
	config.NormalizeTLSPaths(&paths, cfg.CertDir)

	if paths.CertFile == "" || paths.KeyFile == "" {
		return nil, errMissingClientCert
	}

	cert, err := tls.LoadX509KeyPair(paths.CertFile, paths.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   cfg.ServerName,
		MinVersion:   tls.VersionTLS12,
	}

	if paths.CAFile != "" {
		pem, err := os.ReadFile(paths.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errCAParsingFailed
		}

		tlsConfig.RootCAs = pool
	}

	log.Debug().
		Str("cert_file", paths.CertFile).
		Str("ca_file", paths.CAFile).
		Msg("Loaded mTLS client credentials")

	return &MTLSProvider{tlsConfig: tlsConfig}, nil
}

func (p *MTLSProvider) ClientTLS(context.Context) (*tls.Config, error) {
	return p.tlsConfig.Clone(), nil
}

func (*MTLSProvider) Close() error { return nil }

// SpiffeProvider sources rotating X.509 SVIDs from the SPIFFE Workload API.
type SpiffeProvider struct {
	client      *workloadapi.Client
	source      *workloadapi.X509Source
	trustDomain *spiffeid.TrustDomain
	serverID    *spiffeid.ID
	logger      logger.Logger
	closeOnce   sync.Once
}

// NewSpiffeProvider connects to the workload API and waits for the first SVID.
func NewSpiffeProvider(ctx context.Context, cfg *models.SecurityConfig, log logger.Logger) (*SpiffeProvider, error) {
	td, serverID, err := parseSpiffeIdentity(cfg, log)
	if err != nil {
		return nil, err
	}

	socket := cfg.WorkloadSocket
	if socket == "" {
		socket = defaultWorkloadSocket
	}

	client, err := workloadapi.New(ctx, workloadapi.WithAddr(socket))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errWorkloadClient, err)
	}

	source, err := workloadapi.NewX509Source(ctx, workloadapi.WithClient(client))
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: %w", errX509Source, err)
	}

	return &SpiffeProvider{
		client:      client,
		source:      source,
		trustDomain: td,
		serverID:    serverID,
		logger:      log,
	}, nil
}

func parseSpiffeIdentity(cfg *models.SecurityConfig, log logger.Logger) (*spiffeid.TrustDomain, *spiffeid.ID, error) {
	var td *spiffeid.TrustDomain

	if raw := strings.TrimSpace(cfg.TrustDomain); raw != "" {
		parsed, err := spiffeid.TrustDomainFromString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errInvalidTrustDomain, err)
		}

		td = &parsed
	}

	raw := strings.TrimSpace(cfg.ServerSPIFFEID)
	if raw == "" {
		return td, nil, nil
	}

	id, err := normalizeServerSPIFFEID(raw, td)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errInvalidServerSPIFFEID, err)
	}

	log.Debug().Str("server_spiffe_id", id.String()).Msg("Pinned SPIFFE server identity")

	return td, &id, nil
}

// normalizeServerSPIFFEID accepts a full spiffe:// ID or a path under the trust domain.
func normalizeServerSPIFFEID(raw string, td *spiffeid.TrustDomain) (spiffeid.ID, error) {
	if strings.Contains(raw, "://") {
		return spiffeid.FromString(raw)
	}

	if td == nil {
		return spiffeid.ID{}, fmt.Errorf("server SPIFFE ID %q has no scheme and no trust_domain is configured", raw)
	}

	return spiffeid.FromPath(*td, "/"+strings.TrimPrefix(raw, "/"))
}

func (p *SpiffeProvider) ClientTLS(context.Context) (*tls.Config, error) {
	authorizer := tlsconfig.AuthorizeAny()

	switch {
	case p.serverID != nil:
		authorizer = tlsconfig.AuthorizeID(*p.serverID)
	case p.trustDomain != nil:
		authorizer = tlsconfig.AuthorizeMemberOf(*p.trustDomain)
	default:
		p.logger.Warn().Msg("SPIFFE client has no server_spiffe_id or trust_domain; accepting any SPIFFE peer")
	}

	return tlsconfig.MTLSClientConfig(p.source, p.source, authorizer), nil
}

func (p *SpiffeProvider) Close() error {
	var err error

	p.closeOnce.Do(func() {
		err = errors.Join(p.source.Close(), p.client.Close())
	})

	return err
}

// NewSecurityProvider picks the provider for cfg.Mode. A nil cfg or empty mode is plaintext.
func NewSecurityProvider(ctx context.Context, cfg *models.SecurityConfig, log logger.Logger) (Provider, error) {
	if cfg == nil || cfg.Mode == "" {
		return NoSecurityProvider{}, nil
	}

	switch models.SecurityMode(strings.ToLower(string(cfg.Mode))) {
	case models.SecurityModeNone:
		return NoSecurityProvider{}, nil
	case models.SecurityModeMTLS:
		return NewMTLSProvider(cfg, log)
	case models.SecurityModeSpiffe:
		return NewSpiffeProvider(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownSecurityMode, cfg.Mode)
	}
}
