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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
)

type periodicHooks struct{ id models.ProbeID }

func (h periodicHooks) ID() models.ProbeID { return h.id }

func (periodicHooks) Parameters() []models.Parameter {
	return []models.Parameter{{Name: models.ParamPeriod, Default: 3600.0, Merge: models.MergeMin}}
}

func (periodicHooks) RequiredCapabilities() []string                            { return nil }
func (periodicHooks) OnEnable(context.Context, models.Params) error             { return nil }
func (periodicHooks) OnRun(context.Context, models.Params, probe.Emitter) error { return nil }
func (periodicHooks) OnDisable(context.Context) error                           { return nil }
func (periodicHooks) OnStop(context.Context) error                              { return nil }

func TestRunCycleAppliesChangedPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewTestLogger()

	registry := probe.NewRegistry()
	p := probe.New(periodicHooks{id: "A"}, nil, log)
	require.NoError(t, registry.Add(p))

	fetcher := NewMockFetcher(ctrl)
	timer := NewMockTimer(ctrl)
	timer.EXPECT().ScheduleNext(gomock.Any()).AnyTimes()

	disp := dispatch.NewDispatcher(registry, nil, nil, log)
	r := NewReconciler(fetcher, disp, timer, log, WithRequester("app-1"))

	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any()).Return(cfg("1", 0, map[models.ProbeID][]models.Params{
			"A": {{models.ParamPeriod: 60.0}},
		}), nil),
		fetcher.EXPECT().Fetch(gomock.Any()).Return(cfg("2", 0, map[models.ProbeID][]models.Params{
			"A": {{models.ParamPeriod: 600.0}},
		}), nil),
	)

	r.RunCycle(context.Background())
	assert.Equal(t, 60.0, p.Params()[models.ParamPeriod])

	r.RunCycle(context.Background())

	require.Eventually(t, func() bool { return p.State() == probe.StateEnabled }, time.Second, 5*time.Millisecond)
	assert.Len(t, p.Requests(), 1)
	assert.Equal(t, 600.0, p.Params()[models.ParamPeriod])
}
