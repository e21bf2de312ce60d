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

package probe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/scan"
)

const defaultStopTimeout = 4 * time.Second

// Option configures a Probe.
type Option func(*Probe)

func WithStopTimeout(d time.Duration) Option {
	return func(p *Probe) {
		if d > 0 {
			p.stopTimeout = d
		}
	}
}

func WithCapabilityChecker(c CapabilityChecker) Option {
	return func(p *Probe) { p.caps = c }
}

func WithClock(now func() time.Time) Option {
	return func(p *Probe) { p.now = now }
}

// Probe owns the lifecycle of one probe variant.
type Probe struct {
	hooks       Hooks
	emitter     Emitter
	caps        CapabilityChecker
	log         logger.Logger
	stopTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	state     State
	params    models.Params
	requests  map[string]models.DataRequest
	cancel    context.CancelFunc
	done      chan struct{}
	gen       uint64
	transient bool
	lastRun   time.Time
	// straggler is a worker a timed-out Disable gave up on; no new worker starts
	// until it exits.
	straggler chan struct{}
}

// New wraps hooks in a Disabled probe.
func New(hooks Hooks, emitter Emitter, log logger.Logger, opts ...Option) *Probe {
	p := &Probe{
		hooks:       hooks,
		emitter:     emitter,
		log:         log,
		stopTimeout: defaultStopTimeout,
		now:         time.Now,
		requests:    make(map[string]models.DataRequest),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Probe) ID() models.ProbeID { return p.hooks.ID() }

func (p *Probe) scoped() logger.Logger { return p.log.Scoped("probe", string(p.ID())) }

func (p *Probe) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Params returns the effective parameter set, nil while Disabled.
func (p *Probe) Params() models.Params {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.params == nil {
		return nil
	}

	return p.params.Clone()
}

// Requests returns the active Data Requests ordered by identity.
func (p *Probe) Requests() []models.DataRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.requests))
	for k := range p.requests {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]models.DataRequest, len(keys))
	for i, k := range keys {
		out[i] = p.requests[k]
	}

	return out
}

// Enable moves a Disabled probe to Enabled with the merged parameter set. It fails with
// ErrCapabilityUnavailable, leaving the probe Disabled, when capabilities are missing.
func (p *Probe) Enable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.enableLocked(ctx)
}

func (p *Probe) enableLocked(ctx context.Context) error {
	switch p.state {
	case StateStopped:
		return ErrStopped
	case StateEnabled, StateRunning:
		return nil
	case StateDisabled:
	}

	if required := p.hooks.RequiredCapabilities(); len(required) > 0 {
		if p.caps == nil || !p.caps.HasCapabilities(ctx, required) {
			return fmt.Errorf("%w: probe %s requires %v", ErrCapabilityUnavailable, p.ID(), required)
		}
	}

	params := p.mergedLocked()

	if err := p.hooks.OnEnable(ctx, params); err != nil {
		return fmt.Errorf("probe %s failed to enable: %w", p.ID(), err)
	}

	p.params = params
	p.state = StateEnabled

	p.scoped().Debug().Interface("params", params).Msg("Probe enabled")

	return nil
}

func (p *Probe) mergedLocked() models.Params {
	reqs := make([]models.Params, 0, len(p.requests))
	for _, r := range p.requests {
		reqs = append(reqs, r.Params)
	}

	return models.MergeParams(p.hooks.Parameters(), reqs...)
}

// Run starts a worker with params (the effective set when nil). It reports whether a worker
// was started: Disabled and Stopped probes ignore the call and a Running probe coalesces it.
func (p *Probe) Run(ctx context.Context, params models.Params) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if params == nil {
		params = p.params
	}

	return p.runLocked(ctx, params)
}

func (p *Probe) runLocked(ctx context.Context, params models.Params) bool {
	switch p.state {
	case StateDisabled, StateStopped:
		return false
	case StateRunning:
		p.scoped().Debug().Msg("Run coalesced with in-flight scan")
		return false
	case StateEnabled:
	}

	if p.straggler != nil {
		select {
		case <-p.straggler:
			p.straggler = nil
		default:
			p.scoped().Debug().Msg("Run held back until the abandoned worker exits")
			return false
		}
	}

	// workers outlive the request that started them
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	p.gen++
	p.state = StateRunning
	p.cancel = cancel
	p.done = done
	p.lastRun = p.now()

	go p.work(workerCtx, p.gen, params.Clone(), done)

	return true
}

func (p *Probe) work(ctx context.Context, gen uint64, params models.Params, done chan struct{}) {
	defer close(done)

	start := time.Now()
	err := p.hooks.OnRun(ctx, params, p.emitter)

	switch {
	case err == nil:
		p.scoped().Debug().Dur("elapsed", time.Since(start)).Msg("Probe run finished")
	case errors.Is(err, context.Canceled):
		p.scoped().Debug().Msg("Probe run cancelled")
	case errors.Is(err, scan.ErrDataSource):
		p.scoped().Warn().Err(err).Msg("Probe scan aborted")
	default:
		p.scoped().Error().Err(err).Msg("Probe run failed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.straggler == done {
		p.straggler = nil
	}

	if p.gen != gen || p.state != StateRunning {
		return
	}

	p.state = StateEnabled
	p.cancel = nil
	p.done = nil

	if p.transient {
		p.transient = false
		p.disableLocked(ctx)
	}
}

// join cancels the in-flight worker, if any, and waits for it up to the stop bound.
// Called without p.mu held.
func (p *Probe) join(cancel context.CancelFunc, done chan struct{}) error {
	if cancel == nil {
		return nil
	}

	cancel()

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		p.scoped().Warn().
			Dur("timeout", p.stopTimeout).
			Msg("Probe worker did not stop in time; abandoning it, its data source must release itself")

		return ErrStopTimeout
	}
}

// Stop cancels any worker, waits for it with a bound and moves the probe to the terminal
// Stopped state. A stop timeout is logged and returned but the probe is stopped regardless.
func (p *Probe) Stop(ctx context.Context) error {
	p.mu.Lock()

	if p.state == StateDisabled || p.state == StateStopped {
		p.mu.Unlock()
		return nil
	}

	cancel, done := p.cancel, p.done
	p.state = StateStopped
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	joinErr := p.join(cancel, done)

	if err := p.hooks.OnStop(ctx); err != nil {
		p.scoped().Warn().Err(err).Msg("Probe stop hook failed")
	}

	return joinErr
}

// Disable clears the parameter set and Data Requests of an Enabled probe. A Running probe
// is cancelled and joined first; a Disabled probe ignores the call.
func (p *Probe) Disable(ctx context.Context) error {
	p.mu.Lock()

	if p.state != StateRunning {
		defer p.mu.Unlock()

		if p.state == StateEnabled {
			p.disableLocked(ctx)
		}

		return nil
	}

	cancel, done, gen := p.cancel, p.done, p.gen
	p.mu.Unlock()

	joinErr := p.join(cancel, done)

	p.mu.Lock()
	defer p.mu.Unlock()

	if errors.Is(joinErr, ErrStopTimeout) {
		select {
		case <-done:
		default:
			p.straggler = done
		}
	}

	// another transition may have happened while we waited
	if p.gen != gen || (p.state != StateRunning && p.state != StateEnabled) {
		return joinErr
	}

	p.disableLocked(ctx)

	return joinErr
}

func (p *Probe) disableLocked(ctx context.Context) {
	p.state = StateDisabled
	p.params = nil
	p.requests = make(map[string]models.DataRequest)
	p.cancel, p.done = nil, nil
	p.transient = false

	if err := p.hooks.OnDisable(ctx); err != nil {
		p.scoped().Warn().Err(err).Msg("Probe disable hook failed")
	}

	p.scoped().Debug().Msg("Probe disabled")
}

// RegisterRequest adds req to the active set. A request identical to one already active
// changes nothing. Otherwise the probe is enabled if needed and a run is triggered with the
// new effective parameters. It reports whether the active set changed.
func (p *Probe) RegisterRequest(ctx context.Context, req models.DataRequest) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return false, ErrStopped
	}

	key := req.Key()
	if _, ok := p.requests[key]; ok {
		return false, nil
	}

	p.requests[key] = req

	if p.state == StateDisabled {
		if err := p.enableLocked(ctx); err != nil {
			delete(p.requests, key)
			return false, err
		}
	} else {
		p.params = p.mergedLocked()
	}

	p.transient = false
	p.runLocked(ctx, p.params)

	return true, nil
}

// UnregisterAll drops every Data Request and disables the probe.
func (p *Probe) UnregisterAll(ctx context.Context) error {
	return p.Disable(ctx)
}

// RunTransient performs a one-off run with the effective parameters overlaid by params,
// leaving the Data Requests untouched. A Disabled probe is enabled for the run and
// disabled again once it finishes.
func (p *Probe) RunTransient(ctx context.Context, params models.Params) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasDisabled := p.state == StateDisabled

	if err := p.enableLocked(ctx); err != nil {
		return false, err
	}

	runParams := p.params.Clone()

	for _, param := range p.hooks.Parameters() {
		if v, ok := params[param.Name]; ok {
			runParams[param.Name] = v
		}
	}

	started := p.runLocked(ctx, runParams)

	switch {
	case !started && wasDisabled:
		p.disableLocked(ctx)
	case wasDisabled:
		p.transient = true
	}

	return started, nil
}

// SendStatus emits a status reply for requester. nonce may be empty.
func (p *Probe) SendStatus(ctx context.Context, requester, nonce string) error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	reply := models.StatusReply{
		Probe:     p.ID(),
		Enabled:   state == StateEnabled || state == StateRunning,
		State:     state.String(),
		Nonce:     nonce,
		Timestamp: p.now(),
	}

	return p.emitter.EmitStatus(ctx, requester, reply)
}

// Due reports whether an idle Enabled probe's period has elapsed since its last run.
func (p *Probe) Due(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateEnabled {
		return false
	}

	secs, ok := p.params.Float(models.ParamPeriod)
	if !ok || secs <= 0 {
		return false
	}

	return now.Sub(p.lastRun) >= time.Duration(secs*float64(time.Second))
}
