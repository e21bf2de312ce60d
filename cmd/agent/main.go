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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/fieldprobe/pkg/agent"
	"github.com/carverauto/fieldprobe/pkg/config"
	"github.com/carverauto/fieldprobe/pkg/lifecycle"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/version"
)

const serviceName = "fieldprobe-agent"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/fieldprobe/agent.json", "Path to agent config file (.json, .yaml)")
	flag.Parse()

	ctx := context.Background()

	// Step 1: load and validate the config (CONFIG_SOURCE=env reads FIELDPROBE_* instead)
	var cfg agent.ServerConfig
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Step 2: logger and telemetry
	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	agentLogger, err := lifecycle.CreateComponentLogger(ctx, "agent", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shutdown logger: %v", err)
		}
	}()

	telemetry := logger.TelemetryConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		OTel:           &logConfig.OTel,
	}

	if _, err := logger.InitializeTracing(ctx, telemetry); err != nil {
		agentLogger.Warn().Err(err).Msg("Tracing disabled")
	}

	if _, err := logger.InitializeMetrics(ctx, telemetry); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		agentLogger.Warn().Err(err).Msg("Metrics export disabled")
	}

	agentLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting fieldprobe agent")

	// Step 3: build the agent; probe registry errors are fatal here
	server, err := agent.NewServer(ctx, &cfg, agentLogger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		Name:            serviceName,
		Service:         server,
		Logger:          agentLogger,
		ShutdownTimeout: time.Duration(cfg.StopTimeout) + 5*time.Second,
	})
}
