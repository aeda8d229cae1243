// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

// Package main is the entry point for the EventStats analyzer.
//
// The analyzer is the read side of the pipeline. It runs two durable stream
// consumers that persist user actions and similarity records into DuckDB,
// and serves three server-streaming gRPC queries over the stored data:
// per-user predictions, similar events, and per-event interaction totals.
//
// Both writers are idempotent, so replayed or duplicated stream records
// cannot corrupt the tables.
package main

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/IljiaPolstianoy/eventstats/internal/analyzer"
	"github.com/IljiaPolstianoy/eventstats/internal/app"
	"github.com/IljiaPolstianoy/eventstats/internal/config"
	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/ops"
	"github.com/IljiaPolstianoy/eventstats/internal/recommend"
	"github.com/IljiaPolstianoy/eventstats/internal/store"
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
		Str("grpc_addr", cfg.Analyzer.GRPCAddr).
		Str("db_path", cfg.Database.Path).
		Msg("Starting EventStats analyzer")

	db, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.SeedActionWeights(context.Background(), cfg.Weights.Weights()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed action weight table")
	}

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

	newSubscriber := func(streamName, durable string) *stream.Subscriber {
		subCfg := stream.DefaultSubscriberConfig(messaging.URL, streamName, durable)
		subCfg.AckWaitTimeout = cfg.NATS.AckWaitTimeout
		subCfg.Deliver = stream.DeliverAll
		sub, err := stream.NewSubscriber(&subCfg, wmLogger)
		if err != nil {
			logging.Fatal().Err(err).Str("stream", streamName).Msg("Failed to create stream subscriber")
		}
		return sub
	}

	actionSub := newSubscriber(stream.StreamUserActions, cfg.Analyzer.ActionDurableName)
	defer func() {
		if err := actionSub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing action subscriber")
		}
	}()
	similaritySub := newSubscriber(stream.StreamEventSimilarity, cfg.Analyzer.SimilarityDurable)
	defer func() {
		if err := similaritySub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing similarity subscriber")
		}
	}()

	var poisonPub message.Publisher
	if cfg.NATS.RouterPoisonQueueEnabled {
		pubCfg := stream.DefaultPublisherConfig(messaging.URL)
		pubCfg.RetryAttempts = cfg.NATS.RetryAttempts
		pubCfg.RetryWait = cfg.NATS.RetryDelay
		publisher, err := stream.NewPublisher(pubCfg, wmLogger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create poison queue publisher")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing poison queue publisher")
			}
		}()
		poisonPub = publisher.WatermillPublisher()
	}

	routerCfg := stream.RouterConfig{
		CloseTimeout:         cfg.NATS.RouterCloseTimeout,
		RetryCount:           cfg.NATS.RouterRetryCount,
		RetryInitialInterval: cfg.NATS.RouterRetryInitialInterval,
		PoisonTopic:          cfg.NATS.RouterPoisonQueueTopic,
	}
	router, err := stream.NewRouter(&routerCfg, poisonPub, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream router")
	}
	router.AddConsumerHandler("action-writer", event.TopicUserActions, actionSub,
		analyzer.NewActionWriter(db, cfg.Weights.Weights()).Handle)
	router.AddConsumerHandler("similarity-writer", event.TopicEventSimilarity, similaritySub,
		analyzer.NewSimilarityWriter(db).Handle)

	recommender := recommend.NewService(db, recommend.Config{
		MaxResultsLimit:    cfg.Analyzer.MaxResultsLimit,
		RecentInteractions: cfg.Analyzer.RecentInteractions,
		Neighbors:          cfg.Analyzer.Neighbors,
	})

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(router)
	tree.AddAPIService(analyzer.NewGRPCServer(cfg.Analyzer.GRPCAddr, analyzer.NewRecommendationsHandler(recommender, cfg.Analyzer.Timeout)))

	if cfg.Ops.Enabled {
		checkers := map[string]ops.HealthChecker{
			"duckdb": ops.HealthCheckerFunc(func(ctx context.Context) bool {
				return db.Ping(ctx) == nil
			}),
		}
		for name, probe := range messaging.HealthCheckers() {
			checkers[name] = ops.HealthCheckerFunc(probe)
		}
		tree.AddAPIService(ops.NewServer(&cfg.Ops, checkers))
	}

	app.RunTree(tree)
	logging.Info().Msg("Analyzer stopped gracefully")
}
