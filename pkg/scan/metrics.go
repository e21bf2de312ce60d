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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/fieldprobe/pkg/models"
)

const meterName = "github.com/carverauto/fieldprobe/pkg/scan"

type scanInstruments struct {
	records  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	instrumentsOnce sync.Once
	instruments     *scanInstruments
)

func getInstruments() *scanInstruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		inst := &scanInstruments{}

		// The global meter hands out no-op instruments until a provider is installed,
		// and creation errors leave the nil instrument in place.
		inst.records, _ = meter.Int64Counter("fieldprobe.scan.records",
			metric.WithDescription("Records emitted by probe scans"))
		inst.failures, _ = meter.Int64Counter("fieldprobe.scan.failures",
			metric.WithDescription("Probe scans that ended with an error"))
		inst.duration, _ = meter.Float64Histogram("fieldprobe.scan.duration",
			metric.WithDescription("Probe scan duration"), metric.WithUnit("s"))

		instruments = inst
	})

	return instruments
}

func scanAttributes(probe models.ProbeID, mode Mode) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("probe", string(probe)),
		attribute.String("mode", mode.String()),
	)
}

func recordScan(ctx context.Context, attrs metric.MeasurementOption, records int, elapsed time.Duration, err error) {
	inst := getInstruments()

	if inst.records != nil && records > 0 {
		inst.records.Add(ctx, int64(records), attrs)
	}

	if inst.failures != nil && err != nil {
		inst.failures.Add(ctx, 1, attrs)
	}

	if inst.duration != nil {
		inst.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
