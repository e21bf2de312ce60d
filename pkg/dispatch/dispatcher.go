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

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
)

var (
	// ErrMalformedRequest marks control messages without a requester or with an undecodable payload.
	ErrMalformedRequest = errors.New("malformed control request")
	// ErrUnknownTarget marks requests naming a probe that is not registered.
	ErrUnknownTarget = errors.New("unknown probe")

	errUnknownAction = errors.New("unknown control action")
)

// controlPayload is the JSON body of poll and get requests.
type controlPayload struct {
	Requester string        `json:"requester"`
	Nonce     string        `json:"nonce,omitempty"`
	Params    models.Params `json:"params,omitempty"`
}

// Dispatcher subscribes to the control addresses of every registered probe and routes
// inbound requests to them on the dispatch loop.
type Dispatcher struct {
	registry *probe.Registry
	bus      Bus
	loop     *Loop
	log      logger.Logger

	mu     sync.Mutex
	active bool
	subs   []Subscription
}

func NewDispatcher(registry *probe.Registry, bus Bus, loop *Loop, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		bus:      bus,
		loop:     loop,
		log:      log,
	}
}

// Activate subscribes to the global-poll address and to the poll and get addresses of
// each registered probe. On failure every subscription made so far is released.
func (d *Dispatcher) Activate(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	if err := d.subscribe(Address("", KindGlobalPoll), KindGlobalPoll, ""); err != nil {
		return err
	}

	for _, id := range d.registry.IDs() {
		for _, kind := range []Kind{KindPoll, KindGet} {
			if err := d.subscribe(Address(id, kind), kind, id); err != nil {
				return err
			}
		}
	}

	d.active = true

	d.log.Info().Int("subscriptions", len(d.subs)).Msg("Dispatcher activated")

	return nil
}

// subscribe is called with d.mu held.
func (d *Dispatcher) subscribe(subject string, kind Kind, id models.ProbeID) error {
	sub, err := d.bus.Subscribe(subject, d.handler(kind, id))
	if err != nil {
		unsubErr := d.unsubscribeAll()

		return errors.Join(fmt.Errorf("failed to subscribe to %s: %w", subject, err), unsubErr)
	}

	d.subs = append(d.subs, sub)

	return nil
}

// Deactivate releases every subscription made by Activate.
func (d *Dispatcher) Deactivate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	d.active = false

	err := d.unsubscribeAll()

	d.log.Info().Msg("Dispatcher deactivated")

	return err
}

func (d *Dispatcher) unsubscribeAll() error {
	var errs []error

	for _, sub := range d.subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unsubscribe from %s: %w", sub.Subject(), err))
		}
	}

	d.subs = nil

	return errors.Join(errs...)
}

// Active reports whether the dispatcher holds its subscriptions.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.active
}

// Subjects lists the subscribed subjects.
func (d *Dispatcher) Subjects() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.subs))
	for i, s := range d.subs {
		out[i] = s.Subject()
	}

	return out
}

func (d *Dispatcher) handler(kind Kind, id models.ProbeID) Handler {
	return func(_ context.Context, msg *Message) {
		ctrl, err := Decode(kind, id, msg)
		if err != nil {
			d.log.Debug().Err(err).Str("subject", msg.Subject).Msg("Dropping control message")
			return
		}

		if err := d.loop.Submit(func(ctx context.Context) {
			_ = d.Route(ctx, ctrl)
		}); err != nil {
			d.log.Warn().Err(err).Str("subject", msg.Subject).Msg("Dispatch loop unavailable")
		}
	}
}

// Decode builds the control message for a payload received on an address of kind.
func Decode(kind Kind, id models.ProbeID, msg *Message) (models.ControlMessage, error) {
	var payload controlPayload

	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return models.ControlMessage{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
	}

	return models.ControlMessage{
		Action:    kind.Action(),
		Probe:     id,
		Params:    payload.Params,
		Requester: payload.Requester,
		Nonce:     payload.Nonce,
	}, nil
}

// Route applies one control message. It must run on the dispatch loop. Dropped messages
// return the reason; nothing is propagated further.
func (d *Dispatcher) Route(ctx context.Context, m models.ControlMessage) error {
	if m.Requester == "" {
		d.log.Debug().Str("action", string(m.Action)).Msg("Dropping control message without requester")
		return ErrMalformedRequest
	}

	switch m.Action {
	case models.ActionGlobalPoll:
		for _, p := range d.registry.All() {
			d.sendStatus(ctx, p, m)
		}

		return nil
	case models.ActionProbePoll:
		p, err := d.target(m)
		if err != nil {
			return err
		}

		d.sendStatus(ctx, p, m)

		return nil
	case models.ActionGetData:
		p, err := d.target(m)
		if err != nil {
			return err
		}

		if _, err := p.RunTransient(ctx, m.Params); err != nil {
			d.log.Warn().Err(err).Str("probe", string(p.ID())).Str("requester", m.Requester).Msg("Get-data request failed")
			return err
		}

		return nil
	default:
		d.log.Warn().Str("action", string(m.Action)).Str("requester", m.Requester).Msg("Dropping control message with unknown action")
		return fmt.Errorf("%w: %q", errUnknownAction, m.Action)
	}
}

func (d *Dispatcher) target(m models.ControlMessage) (*probe.Probe, error) {
	p, ok := d.registry.Get(m.Probe)
	if !ok {
		d.log.Warn().Str("probe", string(m.Probe)).Str("action", string(m.Action)).Msg("Dropping control message for unknown probe")
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, m.Probe)
	}

	return p, nil
}

func (d *Dispatcher) sendStatus(ctx context.Context, p *probe.Probe, m models.ControlMessage) {
	if err := p.SendStatus(ctx, m.Requester, m.Nonce); err != nil {
		d.log.Warn().Err(err).Str("probe", string(p.ID())).Str("requester", m.Requester).Msg("Failed to send status reply")
	}
}

// RegisterDataRequest registers req with its probe.
func (d *Dispatcher) RegisterDataRequest(ctx context.Context, req models.DataRequest) error {
	p, ok := d.registry.Get(req.Probe)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, req.Probe)
	}

	_, err := p.RegisterRequest(ctx, req)

	return err
}

// UnregisterDataRequests drops every Data Request of probe id.
func (d *Dispatcher) UnregisterDataRequests(ctx context.Context, id models.ProbeID) error {
	p, ok := d.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}

	return p.UnregisterAll(ctx)
}
