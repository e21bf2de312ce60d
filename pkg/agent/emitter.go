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

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/natsutil"
	"github.com/carverauto/fieldprobe/pkg/scan"
)

// emitter delivers status replies on the bus and fans data messages out to every sink.
type emitter struct {
	bus   dispatch.Bus
	sinks []scan.Sink
}

func (e *emitter) EmitData(ctx context.Context, msg *models.DataMessage) error {
	errs := make([]error, 0, len(e.sinks))

	for _, sink := range e.sinks {
		if err := sink.EmitData(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (e *emitter) EmitStatus(ctx context.Context, requester string, reply models.StatusReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode status reply: %w", err)
	}

	return e.bus.Publish(ctx, dispatch.ReplyAddress(requester), data)
}

// busSink publishes data messages as plain bus messages when no stream is configured.
type busSink struct {
	bus   dispatch.Bus
	codec natsutil.Codec
}

func (s busSink) EmitData(ctx context.Context, msg *models.DataMessage) error {
	data, err := s.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode data message: %w", err)
	}

	return s.bus.Publish(ctx, dispatch.DataAddress(msg.Probe), data)
}
