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

	"github.com/carverauto/fieldprobe/pkg/kv"
	"github.com/carverauto/fieldprobe/pkg/models"
)

func TestBaselineStoreRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := kv.NewMockStore(ctrl)

	var saved []byte

	store.EXPECT().Put(gomock.Any(), DefaultBaselineKey, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, v []byte) error {
			saved = v

			return nil
		})
	store.EXPECT().Get(gomock.Any(), DefaultBaselineKey).DoAndReturn(
		func(context.Context, string) ([]byte, bool, error) {
			return saved, true, nil
		})

	b := NewBaselineStore(store, "")
	want := cfg("9", 20*time.Minute, map[models.ProbeID][]models.Params{"A": {{"x": 1.0}}})

	require.NoError(t, b.Save(context.Background(), want))

	got, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestBaselineStoreEmptyAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := kv.NewMockStore(ctrl)
	b := NewBaselineStore(store, "edge/baseline")

	store.EXPECT().Get(gomock.Any(), "edge/baseline").Return(nil, false, nil)

	got, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	store.EXPECT().Get(gomock.Any(), "edge/baseline").Return([]byte("not json"), true, nil)

	_, err = b.Load(context.Background())
	require.Error(t, err)

	store.EXPECT().Put(gomock.Any(), "edge/baseline", gomock.Any()).Return(errFetch)
	require.ErrorIs(t, b.Save(context.Background(), cfg("1", 0, nil)), errFetch)
}
