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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

const (
	// DefaultPeriod applies when neither the baseline nor the agent names a period.
	DefaultPeriod = time.Hour

	// DefaultRequester identifies data requests created from the remote configuration.
	DefaultRequester = "fieldprobe"
)

// Reconciler runs reconciliation cycles. RunCycle must only be called from the dispatch
// loop; the baseline is owned by that goroutine.
type Reconciler struct {
	fetcher   Fetcher
	registrar Registrar
	reloader  Reloader
	timer     Timer
	baseline  Baseline
	requester string
	period    time.Duration
	logger    logger.Logger
	tracer    trace.Tracer

	current *models.Configuration
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithBaseline persists each applied configuration to b.
func WithBaseline(b Baseline) Option {
	return func(r *Reconciler) { r.baseline = b }
}

// WithReloader notifies rl after each baseline update.
func WithReloader(rl Reloader) Option {
	return func(r *Reconciler) { r.reloader = rl }
}

// WithRequester sets the requester identity stamped on registered data requests.
func WithRequester(id string) Option {
	return func(r *Reconciler) {
		if id != "" {
			r.requester = id
		}
	}
}

// WithPeriod sets the period used when the baseline carries none.
func WithPeriod(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.period = d
		}
	}
}

// NewReconciler wires the cycle collaborators.
func NewReconciler(fetcher Fetcher, registrar Registrar, timer Timer, log logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetcher:   fetcher,
		registrar: registrar,
		timer:     timer,
		requester: DefaultRequester,
		period:    DefaultPeriod,
		logger:    log,
		tracer:    logger.GetTracer("fieldprobe/reconcile"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Restore loads the persisted baseline so probes dropped while the agent was down are
// unregistered on the first cycle. A missing baseline is not an error.
func (r *Reconciler) Restore(ctx context.Context) error {
	if r.baseline == nil {
		return nil
	}

	cfg, err := r.baseline.Load(ctx)
	if err != nil {
		return err
	}

	r.current = cfg

	if cfg != nil {
		r.logger.Info().Str("version", cfg.Version).Int("probes", len(cfg.DataRequests)).Msg("Restored baseline")
	}

	return nil
}

// Current returns the baseline. Call it from the dispatch loop.
func (r *Reconciler) Current() *models.Configuration {
	return r.current
}

// RunCycle fetches the configuration and applies it. The next cycle is always scheduled,
// including after a failed fetch.
func (r *Reconciler) RunCycle(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "reconcile.cycle")
	defer span.End()

	defer func() {
		r.timer.ScheduleNext(r.current.Period(r.period))
	}()

	next, err := r.fetcher.Fetch(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Skipping reconciliation cycle")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		return
	}

	old := r.current

	if old.Equal(next) {
		// Reconciliation still runs in full; registration is idempotent.
		r.logger.Debug().Str("version", next.Version).Msg("Configuration unchanged")
	}

	cleared := 0

	// A probe whose parameter sets changed is cleared too, so requests the new
	// configuration no longer carries do not linger in its merge.
	for _, id := range old.ProbeIDs() {
		if next.Has(id) && old.SameRequests(id, next) {
			continue
		}

		cleared++

		if err := r.registrar.UnregisterDataRequests(ctx, id); err != nil {
			r.logger.Warn().Err(err).Str("probe", string(id)).Msg("Failed to unregister data requests")
		}
	}

	r.current = next
	r.persist(ctx, next)

	registered := 0

	for _, id := range next.ProbeIDs() {
		for _, params := range next.DataRequests[id] {
			req := models.DataRequest{Probe: id, Params: params, Requester: r.requester}

			if err := r.registrar.RegisterDataRequest(ctx, req); err != nil {
				r.logger.Warn().Err(err).Str("probe", string(id)).Msg("Failed to register data request")

				continue
			}

			registered++
		}
	}

	span.SetAttributes(
		attribute.String("config.version", next.Version),
		attribute.Int("probes.cleared", cleared),
		attribute.Int("requests.registered", registered),
	)

	r.logger.Info().
		Str("version", next.Version).
		Int("cleared", cleared).
		Int("registered", registered).
		Msg("Reconciled configuration")
}

func (r *Reconciler) persist(ctx context.Context, cfg *models.Configuration) {
	if r.baseline != nil {
		if err := r.baseline.Save(ctx, cfg); err != nil {
			r.logger.Error().Err(err).Msg("Failed to persist baseline")
		}
	}

	if r.reloader != nil {
		if err := r.reloader.Reload(ctx, cfg); err != nil {
			r.logger.Error().Err(err).Msg("Storage reload failed")
		}
	}
}
