// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds retry and poison queue settings for consumer handlers.
type RouterConfig struct {
	CloseTimeout time.Duration

	// Retry settings for transient handler failures.
	RetryCount           int
	RetryInitialInterval time.Duration

	// PoisonTopic receives messages that exhaust all retries.
	// Empty disables the poison queue.
	PoisonTopic string
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryCount:           3,
		RetryInitialInterval: 100 * time.Millisecond,
		PoisonTopic:          "stats.poison",
	}
}

// Router wraps the Watermill router with the middleware stack the durable
// writers run under: panic recovery, exponential backoff retry, and poison
// queue routing for permanent failures. Ack/nack is driven by handler
// return values.
type Router struct {
	router *message.Router
	config RouterConfig
}

// NewRouter creates a router. poisonPublisher may be nil when the poison
// queue is disabled.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Middleware order matters: Recoverer converts panics to errors so
	// Retry sees them; PoisonQueue catches what Retry gives up on.
	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if poisonPublisher != nil && cfg.PoisonTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	return &Router{
		router: wmRouter,
		config: *cfg,
	}, nil
}

// AddConsumerHandler registers a read-only handler for one topic.
// A nil handler return acks the message; an error triggers retry and
// eventually the poison queue.
func (r *Router) AddConsumerHandler(name, topic string, sub message.Subscriber, fn message.NoPublishHandlerFunc) {
	r.router.AddConsumerHandler(name, topic, sub, fn)
}

// Serve runs all handlers until context cancellation.
// Implements suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel that closes once all handlers are consuming.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
