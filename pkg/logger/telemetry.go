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

package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var ErrOTelMetricsDisabled = errors.New("OTel metrics exporter disabled")

const defaultExportInterval = 15 * time.Second

// TelemetryConfig describes the process for the trace and metric pipelines.
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	OTel           *OTelConfig
	// ExportInterval is the metric push period; zero means 15s.
	ExportInterval time.Duration
}

func (c TelemetryConfig) exporting() bool {
	return c.OTel != nil && c.OTel.Enabled && c.OTel.Endpoint != ""
}

//nolint:gochecknoglobals // providers are process-wide and flushed by ShutdownOTEL
var (
	providersMu    sync.Mutex
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
)

// InitializeTracing installs the global TracerProvider. Without a collector
// spans are still created, so their ids reach the logs, but nothing is exported.
func InitializeTracing(ctx context.Context, config TelemetryConfig) (*sdktrace.TracerProvider, error) {
	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if config.exporting() {
		target, err := newCollector(config.OTel)
		if err != nil {
			return nil, err
		}

		exporter, err := otlptracegrpc.New(ctx, target.traceOptions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	providersMu.Lock()
	tracerProvider = tp
	providersMu.Unlock()

	return tp, nil
}

// GetTracer returns a tracer from the global provider; it is a no-op until
// InitializeTracing runs.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// InitializeMetrics installs the global MeterProvider so scan and
// reconciliation instruments reach the collector. Repeated calls return the
// installed provider.
func InitializeMetrics(ctx context.Context, config TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	if !config.exporting() {
		return nil, ErrOTelMetricsDisabled
	}

	providersMu.Lock()
	defer providersMu.Unlock()

	if meterProvider != nil {
		return meterProvider, nil
	}

	target, err := newCollector(config.OTel)
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetricgrpc.New(ctx, target.metricOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, err
	}

	interval := config.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

func shutdownProviders(ctx context.Context) error {
	providersMu.Lock()
	defer providersMu.Unlock()

	var errs []error

	if meterProvider != nil {
		errs = append(errs, meterProvider.Shutdown(ctx))
		meterProvider = nil
	}

	if tracerProvider != nil {
		errs = append(errs, tracerProvider.Shutdown(ctx))
		tracerProvider = nil
	}

	return errors.Join(errs...)
}
