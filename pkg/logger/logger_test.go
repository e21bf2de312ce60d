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
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/models"
)

func TestInit(t *testing.T) {
	config := &Config{
		Level:  "debug",
		Debug:  true,
		Output: "stdout",
	}

	require.NoError(t, Init(context.Background(), config))

	l := GetLogger()
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(context.Background(), &Config{Level: "loud"})
	require.Error(t, err)
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())

	SetDebug(false)
	assert.Equal(t, zerolog.InfoLevel, GetLogger().GetLevel())
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("dispatcher")

	assert.NotEqual(t, zerolog.Disabled, componentLogger.GetLevel())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "x-api-key=abc, tenant = t1")

	config := DefaultConfig()

	assert.Equal(t, "warn", config.Level)
	assert.Equal(t, "stdout", config.Output)
	assert.Equal(t, defaultServiceName, config.OTel.ServiceName)
	assert.Equal(t, models.Duration(5*time.Second), config.OTel.BatchTimeout)
	assert.Equal(t, map[string]string{"x-api-key": "abc", "tenant": "t1"}, config.OTel.Headers)
}

func TestNewOTelWriterRequiresEndpoint(t *testing.T) {
	_, err := NewOTelWriter(context.Background(), OTelConfig{Enabled: false})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)

	_, err = NewOTelWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
}

func TestNewWithOTelEnabledButNoEndpoint(t *testing.T) {
	l, err := New(context.Background(), &Config{
		Level: "info",
		OTel:  OTelConfig{Enabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestMultiWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer

	mw := NewMultiWriter(&a, &b)
	l := zerolog.New(mw)
	l.Info().Str("probe", "process").Msg("scan finished")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "process", entry["probe"])
		assert.Equal(t, "scan finished", entry["message"])
	}
}

func TestMapZerologLevelToOTel(t *testing.T) {
	tests := []struct {
		zerologLevel string
		expected     string
	}{
		{"trace", "TRACE"},
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"fatal", "FATAL"},
		{"panic", "FATAL"},
		{"unknown", "INFO"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, mapZerologLevelToOTel(test.zerologLevel).String(), test.zerologLevel)
	}
}

func TestTruncateString(t *testing.T) {
	long := string(bytes.Repeat([]byte("a"), maxAttributeValueLength+10))

	got := truncateString(long, maxAttributeValueLength)
	assert.Len(t, got, maxAttributeValueLength)
	assert.Equal(t, "...", got[len(got)-3:])
	assert.Equal(t, "short", truncateString("short", maxAttributeValueLength))
}

func TestPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("FIELDPROBE_LOG_OUTPUT", "stderr")
	t.Setenv("FIELDPROBE_DEBUG", "on")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT", "not-a-duration")

	config := DefaultConfig()

	assert.Equal(t, "stderr", config.Output)
	assert.True(t, config.Debug)
	assert.Equal(t, models.Duration(defaultBatchTimeout), config.OTel.BatchTimeout)
}

func TestScopedLoggerTagsEvents(t *testing.T) {
	var buf bytes.Buffer

	l := Wrap(zerolog.New(&buf)).Scoped("probe", "connections")
	l.Info().Msg("run")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connections", entry["probe"])
}

func TestCollectorSettings(t *testing.T) {
	c, err := newCollector(&OTelConfig{Endpoint: "otel:4317", Insecure: true, TLS: &TLSConfig{CAFile: "/missing"}})
	require.NoError(t, err)
	assert.Nil(t, c.creds)
	assert.Len(t, c.traceOptions(), 2)

	_, err = newCollector(&OTelConfig{Endpoint: "otel:4317", TLS: &TLSConfig{CAFile: t.TempDir() + "/ca.pem"}})
	require.Error(t, err)
}

func TestMetricsRequireCollector(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), TelemetryConfig{OTel: &OTelConfig{Enabled: true}})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)
}
