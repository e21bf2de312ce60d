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

// Package natsutil connects the agent to NATS and adapts the connection to the dispatcher's
// bus, the JetStream record stream, and the record wire codecs.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/transport"
)

const (
	clientName       = "fieldprobe-agent"
	reconnectWait    = 2 * time.Second
	maxReconnects    = -1
	seedFileMaxBytes = 4096
)

var errInvalidSeed = errors.New("invalid nkey seed")

// ConnectWithSecurity dials cfg.URL with the TLS, credentials and nkey settings in cfg.
// Connection lifecycle events are logged through log.
func ConnectWithSecurity(ctx context.Context, cfg *models.NATSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provider, err := transport.NewSecurityProvider(ctx, cfg.Security, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS security provider: %w", err)
	}

	opts, err := connectOptions(ctx, cfg, provider, log)
	if err != nil {
		_ = provider.Close()

		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, append(opts, extraOpts...)...)
	if err != nil {
		_ = provider.Close()

		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

func connectOptions(ctx context.Context, cfg *models.NATSConfig, provider transport.Provider, log logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			ev := log.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}

			ev.Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			if err := provider.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to release NATS security provider")
			}
		}),
	}

	tlsConfig, err := provider.ClientTLS(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
	}

	if tlsConfig != nil {
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}

		opts = append(opts, opt)
	}

	return opts, nil
}

// nkeyOption reads a user seed file and signs server nonces with it.
func nkeyOption(path string) (nats.Option, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nkey seed: %w", err)
	}

	if len(raw) > seedFileMaxBytes {
		return nil, fmt.Errorf("%w: file too large", errInvalidSeed)
	}

	kp, err := nkeys.FromSeed([]byte(strings.TrimSpace(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidSeed, err)
	}

	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidSeed, err)
	}

	if !nkeys.IsValidPublicUserKey(pub) {
		return nil, fmt.Errorf("%w: not a user seed", errInvalidSeed)
	}

	return nats.Nkey(pub, kp.Sign), nil
}
