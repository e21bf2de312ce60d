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

// Package agent assembles the probe registry, the dispatcher and the reconciliation loop
// into the fieldprobe agent service.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/fieldprobe/pkg/capability"
	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/hashutil"
	"github.com/carverauto/fieldprobe/pkg/kv"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/natsutil"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/probes"
	"github.com/carverauto/fieldprobe/pkg/reconcile"
	"github.com/carverauto/fieldprobe/pkg/scan"
	"github.com/carverauto/fieldprobe/pkg/scan/geo"
	"github.com/carverauto/fieldprobe/pkg/storage"
	"github.com/carverauto/fieldprobe/pkg/transport"
)

var (
	errJetStreamRequired = errors.New("jetstream is required for the nats baseline backend")
	errAlreadyStarted    = errors.New("agent already started")
)

// Option overrides a collaborator NewServer would otherwise build from the configuration.
type Option func(*options)

type options struct {
	bus      dispatch.Bus
	js       jetstream.JetStream
	fetcher  reconcile.Fetcher
	baseline kv.Store
	catalog  *probes.Catalog
	clock    reconcile.Clock
}

// WithBus skips the NATS connection and uses bus for control and data traffic.
func WithBus(bus dispatch.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithJetStream supplies the JetStream context used for the record stream and the NATS
// baseline bucket.
func WithJetStream(js jetstream.JetStream) Option {
	return func(o *options) { o.js = js }
}

func WithFetcher(f reconcile.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

func WithBaselineStore(store kv.Store) Option {
	return func(o *options) { o.baseline = store }
}

func WithCatalog(c *probes.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

func WithClock(c reconcile.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Server is the agent service.
type Server struct {
	config     *ServerConfig
	logger     logger.Logger
	registry   *probe.Registry
	loop       *dispatch.Loop
	dispatcher *dispatch.Dispatcher
	timer      *reconcile.LoopTimer
	reconciler *reconcile.Reconciler
	scheduler  *scheduler

	// closers run in reverse acquisition order; probes stop before the connections
	// they emit on are closed.
	closers []func() error

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// NewServer builds the agent from cfg. Any probe that cannot be built or registered is
// fatal.
func NewServer(ctx context.Context, cfg *ServerConfig, log logger.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent configuration: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.catalog == nil {
		o.catalog = probes.NewCatalog()
	}

	s := &Server{
		config: cfg,
		logger: log,
	}

	if err := s.build(ctx, &o); err != nil {
		if closeErr := s.closeResources(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to release resources after build error")
		}

		return nil, err
	}

	return s, nil
}

func (s *Server) build(ctx context.Context, o *options) error {
	cfg := s.config

	if o.bus == nil {
		if err := s.connectNATS(ctx, o); err != nil {
			return err
		}
	}

	codec, err := natsutil.CodecFor(cfg.NATS.Encoding)
	if err != nil {
		return err
	}

	sinks, pg, err := s.dataSinks(ctx, o, codec)
	if err != nil {
		return err
	}

	deps := probes.Deps{Logger: s.logger}

	if deps.Hasher, err = hashutil.NewDeviceHasher([]byte(cfg.DeviceSecret), cfg.AgentID); err != nil {
		return err
	}

	if pg != nil {
		deps.DB = pg.pool
	}

	if cfg.GeoDatabase != "" {
		reader, err := geo.Open(cfg.GeoDatabase)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, reader.Close)
		deps.Geo = reader
	}

	if err := s.buildRegistry(ctx, o.catalog, deps, &emitter{bus: o.bus, sinks: sinks}); err != nil {
		return err
	}

	s.loop = dispatch.NewLoop(s.logger, defaultLoopBufferSize)
	s.dispatcher = dispatch.NewDispatcher(s.registry, o.bus, s.loop, s.logger)
	s.scheduler = newScheduler(s.registry, s.loop, time.Duration(cfg.SchedulerTick), s.logger)

	return s.buildReconciler(ctx, o, pg)
}

func (s *Server) connectNATS(ctx context.Context, o *options) error {
	nc, err := natsutil.ConnectWithSecurity(ctx, s.config.NATS, s.logger, nats.Name(s.config.AgentID))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	s.closers = append(s.closers, func() error {
		return nc.Drain()
	})

	bus := natsutil.NewBus(ctx, nc, s.logger)
	o.bus = bus

	if o.js == nil {
		js, err := natsutil.NewJetStream(nc, s.config.NATS.Domain)
		if err != nil {
			return err
		}

		o.js = js
	}

	return nil
}

// pgSink pairs the record store with the pool the table probes query.
type pgSink struct {
	*storage.PGStore
	pool storage.DB
}

func (s *Server) dataSinks(ctx context.Context, o *options, codec natsutil.Codec) ([]scan.Sink, *pgSink, error) {
	cfg := s.config

	var sinks []scan.Sink

	if cfg.NATS.Stream != "" && o.js != nil {
		pub, err := natsutil.NewRecordPublisher(ctx, o.js, cfg.NATS.Stream, codec, s.logger)
		if err != nil {
			return nil, nil, err
		}

		sinks = append(sinks, pub)
	} else {
		sinks = append(sinks, busSink{bus: o.bus, codec: codec})
	}

	if cfg.Database == nil {
		return sinks, nil, nil
	}

	pool, err := storage.NewPool(ctx, cfg.Database, s.logger)
	if err != nil {
		return nil, nil, err
	}

	s.closers = append(s.closers, func() error {
		pool.Close()
		return nil
	})

	store := storage.NewPGStore(pool, s.logger)
	if err := store.Migrate(ctx); err != nil {
		return nil, nil, err
	}

	return append(sinks, store), &pgSink{PGStore: store, pool: pool}, nil
}

func (s *Server) buildRegistry(ctx context.Context, catalog *probes.Catalog, deps probes.Deps, em probe.Emitter) error {
	hooks, err := catalog.BuildAll(ctx, s.config.Probes, deps)
	if err != nil {
		return fmt.Errorf("failed to build probes: %w", err)
	}

	checker := capability.NewHostChecker(s.config.Capabilities, s.logger)
	s.registry = probe.NewRegistry()

	for _, h := range hooks {
		p := probe.New(h, em, s.logger,
			probe.WithStopTimeout(time.Duration(s.config.StopTimeout)),
			probe.WithCapabilityChecker(checker),
		)

		if err := s.registry.Add(p); err != nil {
			return errors.Join(err, s.registry.StopAll(ctx))
		}
	}

	s.closers = append(s.closers, func() error {
		return s.registry.StopAll(context.Background())
	})

	s.logger.Info().Int("probes", len(hooks)).Strs("types", catalog.Types()).Msg("Probe registry initialized")

	return nil
}

func (s *Server) buildReconciler(ctx context.Context, o *options, pg *pgSink) error {
	cfg := s.config

	fetcher := o.fetcher
	if fetcher == nil {
		client, err := transport.NewHTTPClient(ctx, cfg.ConfigSecurity, time.Duration(cfg.ConfigTimeout), s.logger)
		if err != nil {
			return fmt.Errorf("failed to build config client: %w", err)
		}

		s.closers = append(s.closers, client.Close)

		if fetcher, err = reconcile.NewHTTPFetcher(cfg.ConfigURL, client.Client, s.logger); err != nil {
			return err
		}
	}

	store, err := s.baselineStore(ctx, o)
	if err != nil {
		return err
	}

	key := cfg.Baseline.Key
	if key == "" {
		key = reconcile.DefaultBaselineKey
	}

	ropts := []reconcile.Option{
		reconcile.WithBaseline(reconcile.NewBaselineStore(store, key)),
		reconcile.WithRequester(cfg.AppID),
	}

	if cfg.UpdatePeriod > 0 {
		ropts = append(ropts, reconcile.WithPeriod(time.Duration(cfg.UpdatePeriod)))
	}

	if pg != nil {
		ropts = append(ropts, reconcile.WithReloader(pg.PGStore))
	}

	s.timer = reconcile.NewLoopTimer(s.loop, o.clock, s.logger)
	s.reconciler = reconcile.NewReconciler(fetcher, s.dispatcher, s.timer, s.logger, ropts...)
	s.timer.Bind(s.reconciler.RunCycle)

	return nil
}

func (s *Server) baselineStore(ctx context.Context, o *options) (kv.Store, error) {
	if o.baseline != nil {
		return o.baseline, nil
	}

	var (
		store kv.Store
		err   error
	)

	switch s.config.Baseline.Backend {
	case BaselineRedis:
		store, err = kv.NewRedisStore(ctx, s.config.Baseline.Redis)
	default:
		if o.js == nil {
			return nil, errJetStreamRequired
		}

		bucket := s.config.NATS.KVBucket
		if bucket == "" {
			bucket = defaultKVBucket
		}

		store, err = kv.NewNatsStore(ctx, o.js, bucket)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open baseline store: %w", err)
	}

	s.closers = append(s.closers, store.Close)

	return store, nil
}

// Start restores the baseline, activates the dispatcher and starts the loop, the run
// scheduler and the first reconciliation cycle.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errAlreadyStarted
	}

	s.logger.Info().Str("agent_id", s.config.AgentID).Msg("Starting agent")

	if err := s.reconciler.Restore(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to restore baseline, starting without one")
	}

	if err := s.dispatcher.Activate(ctx); err != nil {
		return fmt.Errorf("failed to activate dispatcher: %w", err)
	}

	// the loop outlives the start request
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.loop.Start(runCtx)
	s.scheduler.Start(runCtx)

	if err := s.timer.Trigger(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to trigger first reconciliation")
	}

	s.started = true

	return nil
}

// Stop deactivates the dispatcher, halts scheduling, stops every probe and closes the
// agent's connections.
func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().Msg("Stopping agent")

	var errs []error

	if err := s.dispatcher.Deactivate(); err != nil {
		errs = append(errs, fmt.Errorf("failed to deactivate dispatcher: %w", err))
	}

	s.timer.Stop()
	s.scheduler.Stop()
	s.loop.Stop()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}

	s.started = false

	return errors.Join(errs...)
}

// Probes lists the registered probe ids.
func (s *Server) Probes() []models.ProbeID {
	return s.registry.IDs()
}

func (s *Server) closeResources() error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	s.closers = nil

	return errors.Join(errs...)
}
