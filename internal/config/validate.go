// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
// Called automatically by Load(); exposed for tests and manual construction.
func (c *Config) Validate() error {
	if err := c.NATS.validate(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Weights.Weights().Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if err := validateAddr("collector.grpc_addr", c.Collector.GRPCAddr); err != nil {
		return err
	}
	if err := validateAddr("analyzer.grpc_addr", c.Analyzer.GRPCAddr); err != nil {
		return err
	}
	if err := c.Analyzer.validate(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if c.Aggregator.DurableName == "" {
		return fmt.Errorf("aggregator: durable_name is required")
	}
	if err := c.Ops.validate(); err != nil {
		return fmt.Errorf("ops: %w", err)
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *NATSConfig) validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(c.URL, "nats://") && !strings.HasPrefix(c.URL, "tls://") {
		return fmt.Errorf("url must start with nats:// or tls://, got %q", c.URL)
	}
	if c.EmbeddedServer && c.StoreDir == "" {
		return fmt.Errorf("store_dir is required when embedded_server is enabled")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("dedup_window must be positive, got %v", c.DedupWindow)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be non-negative, got %d", c.RetryAttempts)
	}
	if c.RouterPoisonQueueEnabled && c.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("router_poison_queue_topic is required when the poison queue is enabled")
	}
	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be non-negative, got %d", c.Threads)
	}
	return nil
}

func (c *AnalyzerConfig) validate() error {
	if c.MaxResultsLimit <= 0 {
		return fmt.Errorf("max_results_limit must be positive, got %d", c.MaxResultsLimit)
	}
	if c.RecentInteractions <= 0 {
		return fmt.Errorf("recent_interactions must be positive, got %d", c.RecentInteractions)
	}
	if c.Neighbors <= 0 {
		return fmt.Errorf("neighbors must be positive, got %d", c.Neighbors)
	}
	if c.ActionDurableName == "" || c.SimilarityDurable == "" {
		return fmt.Errorf("both durable consumer names are required")
	}
	return nil
}

func (c *OpsConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in range 1-65535, got %d", c.Port)
	}
	return nil
}

func (c *LoggingConfig) validate() error {
	switch strings.ToLower(c.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid format %q, must be json or console", c.Format)
	}
	return nil
}

// validateAddr checks a host:port listen address.
func validateAddr(field, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", field, addr, err)
	}
	if host == "" {
		return fmt.Errorf("%s: host is required in %q", field, addr)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%s: invalid port in %q", field, addr)
	}
	return nil
}
