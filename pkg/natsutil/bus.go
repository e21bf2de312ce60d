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

package natsutil

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
)

// Bus adapts a NATS connection to dispatch.Bus.
type Bus struct {
	nc     *nats.Conn
	ctx    context.Context
	logger logger.Logger
}

// NewBus wraps nc. Handlers receive ctx, which should live as long as the subscriptions.
func NewBus(ctx context.Context, nc *nats.Conn, log logger.Logger) *Bus {
	return &Bus{nc: nc, ctx: ctx, logger: log}
}

// Subscribe registers handler on subject. Messages are delivered on the connection's
// goroutine for that subscription.
func (b *Bus) Subscribe(subject string, handler dispatch.Handler) (dispatch.Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		handler(b.ctx, &dispatch.Message{Subject: m.Subject, Data: m.Data})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.logger.Debug().Str("subject", subject).Msg("Subscribed")

	return &subscription{sub: sub}, nil
}

// Publish sends data on subject.
func (b *Bus) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Flush waits until the server has processed everything published so far.
func (b *Bus) Flush(ctx context.Context) error {
	return b.nc.FlushWithContext(ctx)
}

type subscription struct {
	sub *nats.Subscription
}

func (s *subscription) Subject() string { return s.sub.Subject }

func (s *subscription) Unsubscribe() error { return s.sub.Unsubscribe() }
