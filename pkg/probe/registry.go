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

package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/fieldprobe/pkg/models"
)

// Registry is the fixed set of probes known to the process, in registration order.
// It is populated once at startup and only read afterwards.
type Registry struct {
	mu     sync.RWMutex
	probes map[models.ProbeID]*Probe
	order  []models.ProbeID
}

func NewRegistry() *Registry {
	return &Registry{probes: make(map[models.ProbeID]*Probe)}
}

// Add registers p. Registering a second probe with the same id fails with ErrDuplicateProbe.
func (r *Registry) Add(p *Probe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ID()
	if id == "" {
		return errEmptyProbeID
	}

	if _, ok := r.probes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProbe, id)
	}

	r.probes[id] = p
	r.order = append(r.order, id)

	return nil
}

func (r *Registry) Get(id models.ProbeID) (*Probe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.probes[id]

	return p, ok
}

// All returns the probes in registration order.
func (r *Registry) All() []*Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Probe, len(r.order))
	for i, id := range r.order {
		out[i] = r.probes[id]
	}

	return out
}

func (r *Registry) IDs() []models.ProbeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.ProbeID(nil), r.order...)
}

// StopAll stops every probe, collecting stop timeouts.
func (r *Registry) StopAll(ctx context.Context) error {
	var errs []error

	for _, p := range r.All() {
		if err := p.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe %s: %w", p.ID(), err))
		}
	}

	return errors.Join(errs...)
}
