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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/natsutil"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/probes"
	"github.com/carverauto/fieldprobe/pkg/scan"
)

func mustCodec(t *testing.T) natsutil.Codec {
	t.Helper()

	codec, err := natsutil.CodecFor("")
	require.NoError(t, err)

	return codec
}

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (s *countingSink) EmitData(context.Context, *models.DataMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++

	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.n
}

func TestSchedulerRunsDueProbes(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()

	hooks, err := fakeCatalog().Build(ctx, probes.Spec{Type: "fake"}, probes.Deps{})
	require.NoError(t, err)

	sink := &countingSink{}
	base := time.Unix(1_000_000, 0)

	p := probe.New(hooks, &emitter{sinks: []scan.Sink{sink}}, log, probe.WithClock(func() time.Time { return base }))

	registry := probe.NewRegistry()
	require.NoError(t, registry.Add(p))

	_, err = p.RegisterRequest(ctx, models.DataRequest{Probe: "fake", Params: models.Params{models.ParamPeriod: 60}, Requester: "ops"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return p.State() == probe.StateEnabled }, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, sink.count())

	s := newScheduler(registry, dispatch.NewLoop(log, 0), time.Second, log)

	s.now = func() time.Time { return base.Add(30 * time.Second) }
	assert.Equal(t, 0, s.startDue(ctx))

	s.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.Equal(t, 1, s.startDue(ctx))

	require.Eventually(t, func() bool { return sink.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, registry.StopAll(ctx))
}

func TestSchedulerSubmitsTicksOnLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewTestLogger()
	loop := dispatch.NewLoop(log, 0)
	loop.Start(ctx)

	defer loop.Stop()

	hooks, err := fakeCatalog().Build(ctx, probes.Spec{Type: "fake"}, probes.Deps{})
	require.NoError(t, err)

	sink := &countingSink{}
	p := probe.New(hooks, &emitter{sinks: []scan.Sink{sink}}, log)

	registry := probe.NewRegistry()
	require.NoError(t, registry.Add(p))

	_, err = p.RegisterRequest(ctx, models.DataRequest{Probe: "fake", Params: models.Params{models.ParamPeriod: 0.01}, Requester: "ops"})
	require.NoError(t, err)

	s := newScheduler(registry, loop, 20*time.Millisecond, log)
	s.Start(ctx)
	s.Start(ctx)

	require.Eventually(t, func() bool { return sink.count() >= 3 }, 5*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()

	require.NoError(t, registry.StopAll(ctx))
}
