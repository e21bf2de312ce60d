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

package scan

import (
	"context"
	"time"

	"github.com/carverauto/fieldprobe/pkg/models"
)

// Mode selects how a probe publishes the records of a scan.
type Mode int

const (
	// PerRow publishes one message per record, stamped with the record's own time.
	PerRow Mode = iota
	// Batch publishes every record of the scan in one message.
	Batch
)

func (m Mode) String() string {
	if m == Batch {
		return "batch"
	}

	return "per-row"
}

// Sink receives data messages.
type Sink interface {
	EmitData(ctx context.Context, msg *models.DataMessage) error
}

// Emit drains s into sink and returns the number of records delivered.
//
// In Batch mode a failing scan delivers nothing and a batch is stamped with the latest
// record time. In PerRow mode records already delivered before a failure stay delivered.
func Emit(ctx context.Context, s *Scan, mode Mode, probe models.ProbeID, dataName string, sink Sink) (int, error) {
	start := time.Now()
	attrs := scanAttributes(probe, mode)

	n, err := emit(ctx, s, mode, probe, dataName, sink)

	recordScan(ctx, attrs, n, time.Since(start), err)

	return n, err
}

func emit(ctx context.Context, s *Scan, mode Mode, probe models.ProbeID, dataName string, sink Sink) (int, error) {
	if mode == PerRow {
		sent := 0

		for rec, err := range s.Records(ctx) {
			if err != nil {
				return sent, err
			}

			msg := models.NewDataMessage(probe, dataName, rec.Timestamp, []models.Record{rec})
			if err := sink.EmitData(ctx, msg); err != nil {
				return sent, err
			}

			sent++
		}

		return sent, nil
	}

	var (
		batch  []models.Record
		latest time.Time
	)

	for rec, err := range s.Records(ctx) {
		if err != nil {
			return 0, err
		}

		if rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}

		batch = append(batch, rec)
	}

	if len(batch) == 0 {
		return 0, nil
	}

	if err := sink.EmitData(ctx, models.NewDataMessage(probe, dataName, latest, batch)); err != nil {
		return 0, err
	}

	return len(batch), nil
}
