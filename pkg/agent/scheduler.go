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
	"time"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/probe"
)

// scheduler re-runs enabled probes whose period has elapsed. Each tick is a task on the
// dispatch loop, so it never races control messages or reconciliation.
type scheduler struct {
	registry *probe.Registry
	loop     *dispatch.Loop
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger

	mu   sync.Mutex
	done chan struct{}
	stop chan struct{}
}

func newScheduler(registry *probe.Registry, loop *dispatch.Loop, interval time.Duration, log logger.Logger) *scheduler {
	return &scheduler{
		registry: registry,
		loop:     loop,
		interval: interval,
		now:      time.Now,
		logger:   log,
	}
}

func (s *scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.stop, s.done)
}

func (s *scheduler) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Starting probe scheduler")

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := s.loop.Submit(s.runDue); err != nil {
				s.logger.Debug().Err(err).Msg("Scheduler tick dropped")
			}
		}
	}
}

func (s *scheduler) runDue(ctx context.Context) {
	s.startDue(ctx)
}

// startDue starts every due probe and returns how many workers were started.
func (s *scheduler) startDue(ctx context.Context) int {
	now := s.now()
	started := 0

	for _, p := range s.registry.All() {
		if !p.Due(now) {
			continue
		}

		if p.Run(ctx, nil) {
			started++
		}
	}

	if started > 0 {
		s.logger.Debug().Int("started", started).Msg("Scheduled probe runs")
	}

	return started
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}

	close(stop)
	<-done
}
