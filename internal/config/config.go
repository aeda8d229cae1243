// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package config

import (
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

// Config holds all application configuration, shared by the three binaries
// (collector, aggregator, analyzer). Each binary reads only the sections it
// needs; loading the full struct everywhere keeps one config file valid for
// the whole deployment.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	NATS       NATSConfig       `koanf:"nats"`
	Database   DatabaseConfig   `koanf:"database"`
	Weights    WeightsConfig    `koanf:"weights"`
	Collector  CollectorConfig  `koanf:"collector"`
	Aggregator AggregatorConfig `koanf:"aggregator"`
	Analyzer   AnalyzerConfig   `koanf:"analyzer"`
	Ops        OpsConfig        `koanf:"ops"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// NATSConfig holds NATS JetStream transport settings.
//
// Environment Variables:
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded NATS server in-process (default: true)
//   - NATS_STORE_DIR: JetStream storage directory for the embedded server
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	RetentionDays  int           `koanf:"retention_days"`
	DedupWindow    time.Duration `koanf:"dedup_window"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`

	// Router settings (Watermill Router middleware)
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// DatabaseConfig holds DuckDB settings for the analyzer's durable store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// WeightsConfig maps the three action types to engagement weights.
// All three must be set, in (0, 1], ordered view <= register <= like.
type WeightsConfig struct {
	View     float64 `koanf:"view"`
	Register float64 `koanf:"register"`
	Like     float64 `koanf:"like"`
}

// Weights converts the config section to the domain weight table.
func (w WeightsConfig) Weights() event.Weights {
	return event.Weights{
		event.ActionView:     w.View,
		event.ActionRegister: w.Register,
		event.ActionLike:     w.Like,
	}
}

// CollectorConfig holds the action collector gRPC endpoint settings.
type CollectorConfig struct {
	GRPCAddr string        `koanf:"grpc_addr"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AggregatorConfig holds the similarity aggregator settings.
type AggregatorConfig struct {
	DurableName string `koanf:"durable_name"`
}

// AnalyzerConfig holds the analyzer settings: the two writer consumers plus
// the recommendation gRPC endpoint.
type AnalyzerConfig struct {
	GRPCAddr           string        `koanf:"grpc_addr"`
	Timeout            time.Duration `koanf:"timeout"`
	ActionDurableName  string        `koanf:"action_durable_name"`
	SimilarityDurable  string        `koanf:"similarity_durable_name"`
	MaxResultsLimit    int           `koanf:"max_results_limit"`
	RecentInteractions int           `koanf:"recent_interactions"` // K recent actions seeding predictions
	Neighbors          int           `koanf:"neighbors"`           // K nearest interacted neighbors per candidate
}

// OpsConfig holds the operational HTTP endpoint settings (health, metrics).
type OpsConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			RetentionDays:  7,
			DedupWindow:    2 * time.Minute,
			RetryAttempts:  5,
			RetryDelay:     2 * time.Second,
			AckWaitTimeout: 30 * time.Second,

			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "stats.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/eventstats.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Weights: WeightsConfig{
			View:     0.4,
			Register: 0.8,
			Like:     1.0,
		},
		Collector: CollectorConfig{
			GRPCAddr: "0.0.0.0:9090",
			Timeout:  30 * time.Second,
		},
		Aggregator: AggregatorConfig{
			DurableName: "similarity-aggregator",
		},
		Analyzer: AnalyzerConfig{
			GRPCAddr:           "0.0.0.0:9091",
			Timeout:            30 * time.Second,
			ActionDurableName:  "analyzer-actions",
			SimilarityDurable:  "analyzer-similarity",
			MaxResultsLimit:    100,
			RecentInteractions: 10,
			Neighbors:          5,
		},
		Ops: OpsConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    3900,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
