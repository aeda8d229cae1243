// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

// Package main is the entry point for the EventStats collector.
//
// The collector is the write side of the pipeline: it accepts user actions
// over gRPC, validates them, and publishes them to the durable user-actions
// stream. The gRPC ack means the record reached the stream, not that any
// downstream consumer has processed it.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in defaults.
//
// The binary handles graceful shutdown on SIGINT and SIGTERM: the gRPC
// server stops accepting calls, in-flight publishes complete, and the
// stream connection closes.
package main

import (
	"context"

	"github.com/IljiaPolstianoy/eventstats/internal/app"
	"github.com/IljiaPolstianoy/eventstats/internal/collector"
	"github.com/IljiaPolstianoy/eventstats/internal/config"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/ops"
	"github.com/IljiaPolstianoy/eventstats/internal/stream"
	"github.com/IljiaPolstianoy/eventstats/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("grpc_addr", cfg.Collector.GRPCAddr).
		Str("nats_url", cfg.NATS.URL).
		Msg("Starting EventStats collector")

	messaging, err := app.StartMessaging(context.Background(), &cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start messaging")
	}
	defer func() {
		if err := messaging.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing messaging")
		}
	}()

	pubCfg := stream.DefaultPublisherConfig(messaging.URL)
	pubCfg.RetryAttempts = cfg.NATS.RetryAttempts
	pubCfg.RetryWait = cfg.NATS.RetryDelay
	publisher, err := stream.NewPublisher(pubCfg, stream.NewZerologAdapter(logging.Logger()))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}()
	publisher.SetCircuitBreaker(stream.NewCircuitBreaker(stream.DefaultCircuitBreakerConfig("collector-publisher")))

	gateway := collector.NewGateway(publisher, cfg.Collector.Timeout)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(collector.NewGRPCServer(cfg.Collector.GRPCAddr, gateway))

	if cfg.Ops.Enabled {
		checkers := make(map[string]ops.HealthChecker)
		for name, probe := range messaging.HealthCheckers() {
			checkers[name] = ops.HealthCheckerFunc(probe)
		}
		tree.AddAPIService(ops.NewServer(&cfg.Ops, checkers))
	}

	app.RunTree(tree)
	logging.Info().Msg("Collector stopped gracefully")
}
