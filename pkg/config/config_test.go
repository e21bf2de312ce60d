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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

type testConfig struct {
	Name     string             `json:"name" yaml:"name"`
	Interval models.Duration    `json:"interval" yaml:"interval"`
	Timeout  time.Duration      `json:"timeout" yaml:"timeout"`
	Workers  int                `json:"workers" yaml:"workers"`
	Debug    bool               `json:"debug" yaml:"debug"`
	Tags     []string           `json:"tags" yaml:"tags"`
	NATS     *models.NATSConfig `json:"nats" yaml:"nats"`
	Hidden   string             `json:"-"`
}

func (c *testConfig) Validate() error {
	if c.Name == "" {
		return errInvalidConfigPtr
	}

	return nil
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateJSONFile(t *testing.T) {
	path := writeFile(t, "agent.json", `{
		"name": "edge",
		"interval": "30s",
		"nats": {"url": "nats://localhost:4222", "security": {"mode": "mtls", "cert_dir": "/etc/certs",
			"tls": {"cert_file": "client.pem", "key_file": "/abs/key.pem", "ca_file": "ca.pem"}}}
	}`)

	var cfg testConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "edge", cfg.Name)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Interval))
	require.NotNil(t, cfg.NATS.Security)
	assert.Equal(t, "/etc/certs/client.pem", cfg.NATS.Security.TLS.CertFile)
	assert.Equal(t, "/abs/key.pem", cfg.NATS.Security.TLS.KeyFile)
	assert.Equal(t, "/etc/certs/ca.pem", cfg.NATS.Security.TLS.CAFile)
}

func TestLoadAndValidateYAMLFile(t *testing.T) {
	path := writeFile(t, "agent.yaml", "name: edge\ninterval: 2m\ntags: [a, b]\nnats:\n  url: nats://x:4222\n")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Interval))
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.Equal(t, "nats://x:4222", cfg.NATS.URL)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	path := writeFile(t, "agent.json", `{"workers": 2}`)

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, errInvalidConfigPtr)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestInvalidConfigSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvLoaderIndividualVariables(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("FIELDPROBE_NAME", "from-env")
	t.Setenv("FIELDPROBE_INTERVAL", "45s")
	t.Setenv("FIELDPROBE_TIMEOUT", "3s")
	t.Setenv("FIELDPROBE_WORKERS", "4")
	t.Setenv("FIELDPROBE_DEBUG", "true")
	t.Setenv("FIELDPROBE_TAGS", "x, y,,z")
	t.Setenv("FIELDPROBE_NATS_URL", "nats://env:4222")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Interval))
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Tags)
	require.NotNil(t, cfg.NATS)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Nil(t, cfg.NATS.Security, "untouched optional sections stay nil")
}

func TestEnvLoaderSkipsMalformedValues(t *testing.T) {
	t.Setenv("TEST_NAME", "ok")
	t.Setenv("TEST_WORKERS", "many")

	var cfg testConfig
	require.NoError(t, NewEnvConfigLoader(nil, "TEST_").Load(context.Background(), "", &cfg))

	assert.Equal(t, "ok", cfg.Name)
	assert.Zero(t, cfg.Workers)
	assert.Nil(t, cfg.NATS)
}

func TestEnvLoaderConfigJSON(t *testing.T) {
	t.Setenv("TEST_CONFIG_JSON", `{"name":"whole","workers":9}`)
	t.Setenv("TEST_NAME", "ignored")

	var cfg testConfig
	require.NoError(t, NewEnvConfigLoader(nil, "TEST_").Load(context.Background(), "", &cfg))

	assert.Equal(t, "whole", cfg.Name)
	assert.Equal(t, 9, cfg.Workers)
}

func TestEnvLoaderRejectsNonStruct(t *testing.T) {
	loader := NewEnvConfigLoader(nil, "TEST_")

	var s string
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
	require.ErrorIs(t, loader.Load(context.Background(), "", testConfig{}), ErrDstMustBeNonNilPointer)
}

func TestNormalizeTLSPaths(t *testing.T) {
	tls := models.TLSConfig{CertFile: "a.pem", KeyFile: "", CAFile: "/x/ca.pem"}
	NormalizeTLSPaths(&tls, "/certs")

	assert.Equal(t, "/certs/a.pem", tls.CertFile)
	assert.Empty(t, tls.KeyFile)
	assert.Equal(t, "/x/ca.pem", tls.CAFile)

	tls = models.TLSConfig{CertFile: "rel.pem"}
	NormalizeTLSPaths(&tls, "")
	assert.Equal(t, "rel.pem", tls.CertFile)
}

func TestFileLoaderExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("FIELDPROBE_TEST_NAME", "edge-7")

	path := writeFile(t, "agent.yaml", "name: ${FIELDPROBE_TEST_NAME}\ntags: [\"${FIELDPROBE_UNSET_VAR}\", \"$literal\"]\n")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "edge-7", cfg.Name)
	assert.Equal(t, []string{"${FIELDPROBE_UNSET_VAR}", "$literal"}, cfg.Tags)
}
