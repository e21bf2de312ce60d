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

// Package reconcile keeps the registered data requests in line with a remotely published
// configuration.
package reconcile

//go:generate mockgen -destination=mock_reconcile.go -package=reconcile github.com/carverauto/fieldprobe/pkg/reconcile Fetcher,Registrar,Reloader,Timer,Baseline

import (
	"context"
	"time"

	"github.com/carverauto/fieldprobe/pkg/models"
)

// Fetcher retrieves the desired configuration.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.Configuration, error)
}

// Registrar applies data requests to probes.
type Registrar interface {
	RegisterDataRequest(ctx context.Context, req models.DataRequest) error
	UnregisterDataRequests(ctx context.Context, id models.ProbeID) error
}

// Reloader is told about each new baseline so storage can follow it.
type Reloader interface {
	Reload(ctx context.Context, cfg *models.Configuration) error
}

// Timer re-arms the next cycle. Re-arming replaces any pending cycle.
type Timer interface {
	ScheduleNext(period time.Duration)
}

// Baseline persists the last applied configuration.
type Baseline interface {
	Load(ctx context.Context) (*models.Configuration, error)
	Save(ctx context.Context, cfg *models.Configuration) error
}
