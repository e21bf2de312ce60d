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

package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/logger"
)

type countingService struct {
	starts   atomic.Int32
	stops    atomic.Int32
	startErr error
}

func (c *countingService) Start(context.Context) error {
	c.starts.Add(1)
	return c.startErr
}

func (c *countingService) Stop(context.Context) error {
	c.stops.Add(1)
	return nil
}

func TestRunServiceStopsOnContextCancel(t *testing.T) {
	svc := &countingService{}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- RunService(ctx, &ServiceOptions{Name: "test", Service: svc, Logger: logger.NewTestLogger()})
	}()

	require.Eventually(t, func() bool { return svc.starts.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunService did not return after cancel")
	}

	assert.Equal(t, int32(1), svc.stops.Load())
}

func TestRunServiceStartFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := &countingService{startErr: boom}

	err := RunService(context.Background(), &ServiceOptions{Name: "test", Service: svc})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), svc.stops.Load())
}

func TestRunServiceRequiresService(t *testing.T) {
	require.ErrorIs(t, RunService(context.Background(), nil), errNoService)
}

func TestCreateComponentLogger(t *testing.T) {
	l, err := CreateComponentLogger(context.Background(), "agent", &logger.Config{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = CreateComponentLogger(context.Background(), "agent", &logger.Config{Level: "nope"})
	require.Error(t, err)
}
