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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const (
	insertRecordSQL = `INSERT INTO probe_records (message_id, seq, probe, data_name, observed_at, record)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id, seq) DO NOTHING`
	clearRequestsSQL = `DELETE FROM probe_requests`
	insertRequestSQL = `INSERT INTO probe_requests (probe, params_key, params, config_version, loaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (probe, params_key) DO NOTHING`
)

// PGStore writes data messages into probe_records. Only probes named in the last reloaded
// configuration are stored; before the first reload everything is stored.
type PGStore struct {
	db     DB
	logger logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	accept map[models.ProbeID]struct{}
}

// NewPGStore wraps db.
func NewPGStore(db DB, log logger.Logger) *PGStore {
	return &PGStore{db: db, logger: log, now: time.Now}
}

// EmitData stores every record of msg as one row.
func (s *PGStore) EmitData(ctx context.Context, msg *models.DataMessage) error {
	if !s.accepts(msg.Probe) {
		s.logger.Debug().Str("probe", string(msg.Probe)).Msg("Not storing data for unconfigured probe")

		return nil
	}

	batch := &pgx.Batch{}

	for i, rec := range msg.Records {
		args, err := buildRecordArgs(msg, i, rec)
		if err != nil {
			return err
		}

		batch.Queue(insertRecordSQL, args...)
	}

	return sendBatchExecAll(ctx, s.db, batch, "probe records")
}

func buildRecordArgs(msg *models.DataMessage, seq int, rec models.Record) ([]any, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %d of %s: %w", seq, msg.Probe, err)
	}

	observed := rec.Timestamp
	if observed.IsZero() {
		observed = msg.Timestamp
	}

	return []any{msg.ID, int32(seq), string(msg.Probe), msg.DataName, observed.UTC(), json.RawMessage(body)}, nil
}

// Reload replaces the stored request table with cfg and narrows storage to cfg's probes.
// The whole replacement runs as one batch.
func (s *PGStore) Reload(ctx context.Context, cfg *models.Configuration) error {
	loadedAt := s.now().UTC()

	batch := &pgx.Batch{}
	batch.Queue(clearRequestsSQL)

	accept := make(map[models.ProbeID]struct{}, len(cfg.DataRequests))

	for _, id := range cfg.ProbeIDs() {
		accept[id] = struct{}{}

		for _, params := range cfg.DataRequests[id] {
			key := params.Canonical()
			batch.Queue(insertRequestSQL, string(id), key, json.RawMessage(key), cfg.Version, loadedAt)
		}
	}

	if err := sendBatchExecAll(ctx, s.db, batch, "probe requests"); err != nil {
		return err
	}

	s.mu.Lock()
	s.accept = accept
	s.mu.Unlock()

	s.logger.Info().Str("version", cfg.Version).Int("probes", len(accept)).Msg("Reloaded storage configuration")

	return nil
}

func (s *PGStore) accepts(id models.ProbeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.accept == nil {
		return true
	}

	_, ok := s.accept[id]

	return ok
}
