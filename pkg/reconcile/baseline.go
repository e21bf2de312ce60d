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
	"encoding/json"
	"fmt"

	"github.com/carverauto/fieldprobe/pkg/kv"
	"github.com/carverauto/fieldprobe/pkg/models"
)

// DefaultBaselineKey is where the baseline is stored when no key is configured.
const DefaultBaselineKey = "baseline"

// BaselineStore keeps the baseline as JSON under one key of a kv.Store.
type BaselineStore struct {
	store kv.Store
	key   string
}

// NewBaselineStore stores under key, or DefaultBaselineKey when key is empty.
func NewBaselineStore(store kv.Store, key string) *BaselineStore {
	if key == "" {
		key = DefaultBaselineKey
	}

	return &BaselineStore{store: store, key: key}
}

// Load returns nil without error when nothing has been saved yet.
func (b *BaselineStore) Load(ctx context.Context) (*models.Configuration, error) {
	data, found, err := b.store.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}

	if !found {
		return nil, nil
	}

	cfg, err := models.ParseConfiguration(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode baseline: %w", err)
	}

	return cfg, nil
}

func (b *BaselineStore) Save(ctx context.Context, cfg *models.Configuration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode baseline: %w", err)
	}

	if err := b.store.Put(ctx, b.key, data); err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}

	return nil
}

var _ Baseline = (*BaselineStore)(nil)
