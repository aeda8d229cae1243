// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

// Package app holds the bootstrap sequence shared by the collector,
// aggregator, and analyzer binaries: NATS connection (optionally embedded),
// JetStream stream provisioning, and supervised tree execution with signal
// handling.
package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/IljiaPolstianoy/eventstats/internal/config"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/stream"
	"github.com/IljiaPolstianoy/eventstats/internal/supervisor"
)

// Messaging bundles the NATS resources a binary needs: the client URL to
// hand to publishers and subscribers, plus per-stream health probes.
type Messaging struct {
	URL          string
	embedded     *stream.EmbeddedServer
	conn         *natsgo.Conn
	initializers map[string]*stream.Initializer
}

// StartMessaging connects to NATS, starting an embedded server first when
// configured, and provisions both pipeline streams. Stream provisioning is
// idempotent; every binary runs it so startup order does not matter.
func StartMessaging(ctx context.Context, cfg *config.NATSConfig) (*Messaging, error) {
	m := &Messaging{
		URL:          cfg.URL,
		initializers: make(map[string]*stream.Initializer),
	}

	if cfg.EmbeddedServer {
		serverCfg := stream.DefaultServerConfig()
		serverCfg.StoreDir = cfg.StoreDir
		serverCfg.JetStreamMaxMem = cfg.MaxMemory
		serverCfg.JetStreamMaxStore = cfg.MaxStore

		srv, err := stream.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		m.embedded = srv
		m.URL = srv.ClientURL()
		logging.Info().Str("url", m.URL).Str("store_dir", cfg.StoreDir).Msg("Embedded NATS server started")
	}

	conn, err := natsgo.Connect(m.URL,
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(cfg.RetryDelay),
	)
	if err != nil {
		m.closeEmbedded()
		return nil, fmt.Errorf("connect to NATS at %s: %w", m.URL, err)
	}
	m.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	streamCfgs := []stream.StreamConfig{
		stream.UserActionsStreamConfig(retention, cfg.MaxStore, cfg.DedupWindow),
		stream.EventSimilarityStreamConfig(retention, cfg.MaxStore, cfg.DedupWindow),
	}
	if cfg.RouterPoisonQueueEnabled {
		streamCfgs = append(streamCfgs, stream.PoisonStreamConfig(cfg.RouterPoisonQueueTopic, retention))
	}
	for i := range streamCfgs {
		init, err := stream.NewInitializer(js, &streamCfgs[i])
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		if _, err := init.EnsureStream(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		m.initializers[streamCfgs[i].Name] = init
		logging.Info().Str("stream", streamCfgs[i].Name).Msg("JetStream stream ready")
	}

	return m, nil
}

// HealthCheckers returns one readiness probe per provisioned stream,
// keyed for the ops readiness endpoint.
func (m *Messaging) HealthCheckers() map[string]func(ctx context.Context) bool {
	checkers := make(map[string]func(ctx context.Context) bool, len(m.initializers))
	for name, init := range m.initializers {
		checkers["stream-"+name] = init.IsHealthy
	}
	return checkers
}

// Close releases the NATS connection and stops the embedded server.
func (m *Messaging) Close() error {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.closeEmbedded()
	return nil
}

func (m *Messaging) closeEmbedded() {
	if m.embedded == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.embedded.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Error stopping embedded NATS server")
	}
	m.embedded = nil
}

// RunTree serves the supervisor tree until SIGINT/SIGTERM, then drains
// shutdown errors and reports services that ignored the stop timeout.
func RunTree(tree *supervisor.Tree) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
}
