// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

// Package main is the entry point for the EventStats aggregator.
//
// The aggregator is the compute stage of the pipeline: it consumes the
// user-actions stream, maintains in-memory interaction state, and publishes
// an updated similarity record for every event pair a new action touches.
//
// State lives only in memory. On restart the durable consumer is recreated
// with a replay-from-start policy so the stream itself rebuilds the state;
// downstream writers tolerate the resulting duplicate similarity records.
package main

import (
	"context"

	"github.com/IljiaPolstianoy/eventstats/internal/aggregator"
	"github.com/IljiaPolstianoy/eventstats/internal/app"
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
		Str("nats_url", cfg.NATS.URL).
		Str("durable", cfg.Aggregator.DurableName).
		Msg("Starting EventStats aggregator")

	messaging, err := app.StartMessaging(context.Background(), &cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start messaging")
	}
	defer func() {
		if err := messaging.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing messaging")
		}
	}()

	wmLogger := stream.NewZerologAdapter(logging.Logger())

	// Replay the whole actions stream on start to rebuild in-memory state.
	subCfg := stream.DefaultSubscriberConfig(messaging.URL, stream.StreamUserActions, cfg.Aggregator.DurableName)
	subCfg.AckWaitTimeout = cfg.NATS.AckWaitTimeout
	subCfg.Deliver = stream.DeliverAll
	subscriber, err := stream.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream subscriber")
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscriber")
		}
	}()

	pubCfg := stream.DefaultPublisherConfig(messaging.URL)
	pubCfg.RetryAttempts = cfg.NATS.RetryAttempts
	pubCfg.RetryWait = cfg.NATS.RetryDelay
	publisher, err := stream.NewPublisher(pubCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}()
	publisher.SetCircuitBreaker(stream.NewCircuitBreaker(stream.DefaultCircuitBreakerConfig("aggregator-publisher")))

	service := aggregator.NewService(cfg.Weights.Weights(), subscriber, publisher)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(service)

	if cfg.Ops.Enabled {
		checkers := make(map[string]ops.HealthChecker)
		for name, probe := range messaging.HealthCheckers() {
			checkers[name] = ops.HealthCheckerFunc(probe)
		}
		tree.AddAPIService(ops.NewServer(&cfg.Ops, checkers))
	}

	app.RunTree(tree)
	logging.Info().Msg("Aggregator stopped gracefully")
}
