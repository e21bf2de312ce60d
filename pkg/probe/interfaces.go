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

// Package probe implements the probe lifecycle: enable, run, stop and disable, with at
// most one in-flight worker per probe.
package probe

//go:generate mockgen -destination=mock_probe.go -package=probe github.com/carverauto/fieldprobe/pkg/probe Hooks,Emitter,CapabilityChecker

import (
	"context"

	"github.com/carverauto/fieldprobe/pkg/models"
)

// Hooks is implemented by each probe variant.
type Hooks interface {
	ID() models.ProbeID
	Parameters() []models.Parameter
	RequiredCapabilities() []string
	OnEnable(ctx context.Context, params models.Params) error
	// OnRun performs one collection and emits its records. It must honour ctx cancellation
	// and release any data-source resources on every exit path.
	OnRun(ctx context.Context, params models.Params, emitter Emitter) error
	OnDisable(ctx context.Context) error
	OnStop(ctx context.Context) error
}

// Emitter delivers probe output.
type Emitter interface {
	EmitData(ctx context.Context, msg *models.DataMessage) error
	EmitStatus(ctx context.Context, requester string, reply models.StatusReply) error
}

// CapabilityChecker reports whether the device grants the listed capabilities.
type CapabilityChecker interface {
	HasCapabilities(ctx context.Context, required []string) bool
}
