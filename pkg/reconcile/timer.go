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
	"sync"
	"time"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
)

// Stopper cancels a pending callback.
type Stopper interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// LoopTimer submits its task onto a dispatch loop when the period elapses. Only one cycle is
// pending at a time.
type LoopTimer struct {
	loop   *dispatch.Loop
	clock  Clock
	logger logger.Logger

	mu      sync.Mutex
	task    dispatch.Task
	pending Stopper
	stopped bool
}

// NewLoopTimer uses the system clock when clock is nil.
func NewLoopTimer(loop *dispatch.Loop, clock Clock, log logger.Logger) *LoopTimer {
	if clock == nil {
		clock = systemClock{}
	}

	return &LoopTimer{loop: loop, clock: clock, logger: log}
}

// Bind sets the task submitted on each tick.
func (t *LoopTimer) Bind(task dispatch.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.task = task
}

// ScheduleNext replaces any pending tick with one period from now.
func (t *LoopTimer) ScheduleNext(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	if t.pending != nil {
		t.pending.Stop()
	}

	t.pending = t.clock.AfterFunc(period, t.fire)

	t.logger.Debug().Dur("period", period).Msg("Scheduled next reconciliation")
}

func (t *LoopTimer) fire() {
	t.mu.Lock()
	task := t.task
	t.pending = nil
	t.mu.Unlock()

	if task == nil {
		return
	}

	if err := t.loop.Submit(task); err != nil {
		t.logger.Warn().Err(err).Msg("Dropped reconciliation tick")
	}
}

// Trigger submits the task now without touching the pending tick.
func (t *LoopTimer) Trigger() error {
	t.mu.Lock()
	task := t.task
	t.mu.Unlock()

	if task == nil {
		return nil
	}

	return t.loop.Submit(task)
}

// Stop cancels the pending tick and ignores later ScheduleNext calls.
func (t *LoopTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true

	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
