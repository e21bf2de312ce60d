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

// Package dispatch routes control messages to probes and owns the serial dispatch loop
// that control messages, reconciliation cycles and scheduled runs share.
package dispatch

//go:generate mockgen -destination=mock_dispatch.go -package=dispatch github.com/carverauto/fieldprobe/pkg/dispatch Bus,Subscription

import (
	"context"
)

// Message is an inbound bus message.
type Message struct {
	Subject string
	Data    []byte
}

// Handler receives bus messages. Handlers are called on the transport's goroutines.
type Handler func(ctx context.Context, msg *Message)

// Subscription is a handle returned by Bus.Subscribe.
type Subscription interface {
	Subject() string
	Unsubscribe() error
}

// Bus is the publish/subscribe transport the dispatcher talks over.
type Bus interface {
	Subscribe(subject string, handler Handler) (Subscription, error)
	Publish(ctx context.Context, subject string, data []byte) error
}
