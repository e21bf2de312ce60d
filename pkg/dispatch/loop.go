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
	"errors"
	"sync"

	"github.com/carverauto/fieldprobe/pkg/logger"
)

// ErrLoopStopped is returned when submitting to a loop that is not running.
var ErrLoopStopped = errors.New("dispatch loop stopped")

const defaultLoopBuffer = 64

// Task is a unit of work run on the loop goroutine.
type Task func(ctx context.Context)

// Loop runs submitted tasks one at a time, in submission order, on a single goroutine.
type Loop struct {
	log   logger.Logger
	tasks chan Task

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewLoop(log logger.Logger, buffer int) *Loop {
	if buffer <= 0 {
		buffer = defaultLoopBuffer
	}

	return &Loop{
		log:   log,
		tasks: make(chan Task, buffer),
	}
}

// Start launches the loop goroutine. Tasks see ctx.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}

	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})

	go l.run(ctx, l.stop, l.done)
}

func (l *Loop) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			if l.running && l.stop == stop {
				l.running = false
				close(stop)
			}
			l.mu.Unlock()

			return
		case <-stop:
			return
		case task := <-l.tasks:
			l.exec(ctx, task)
		}
	}
}

func (l *Loop) exec(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("Recovered from panic in dispatch task")
		}
	}()

	task(ctx)
}

// Submit queues task. It blocks while the queue is full and fails once the loop stops.
func (l *Loop) Submit(task Task) error {
	l.mu.Lock()
	running, stop := l.running, l.stop
	l.mu.Unlock()

	if !running {
		return ErrLoopStopped
	}

	select {
	case l.tasks <- task:
		return nil
	case <-stop:
		return ErrLoopStopped
	}
}

// Do runs task on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, task Task) error {
	finished := make(chan struct{})

	if err := l.Submit(func(ctx context.Context) {
		defer close(finished)
		task(ctx)
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the loop after the task in progress; queued tasks are dropped.
func (l *Loop) Stop() {
	l.mu.Lock()

	if !l.running {
		l.mu.Unlock()
		return
	}

	l.running = false
	close(l.stop)
	done := l.done
	l.mu.Unlock()

	<-done

	for {
		select {
		case <-l.tasks:
		default:
			return
		}
	}
}
