// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package stream

import (
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

// JetStream stream names for the two pipeline topics. Stream names cannot
// contain dots, so they are spelled separately from the subjects they bind.
const (
	StreamUserActions     = "STATS-USER-ACTIONS"
	StreamEventSimilarity = "STATS-EVENTS-SIMILARITY"
	StreamPoison          = "STATS-POISON"
)

// StreamNameForTopic maps a pipeline topic to its JetStream stream name.
// Unknown topics return empty string.
func StreamNameForTopic(topic string) string {
	switch topic {
	case event.TopicUserActions:
		return StreamUserActions
	case event.TopicEventSimilarity:
		return StreamEventSimilarity
	default:
		return ""
	}
}

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
	RetryAttempts    int
	RetryWait        time.Duration
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
		RetryAttempts:    3,
		RetryWait:        100 * time.Millisecond,
	}
}

// DeliverPolicy selects where a new consumer starts in the stream.
type DeliverPolicy int

const (
	// DeliverNew delivers only messages published after the consumer starts.
	DeliverNew DeliverPolicy = iota
	// DeliverAll replays the stream from the first message. The aggregator
	// uses this to rebuild its in-memory state after a restart.
	DeliverAll
)

// SubscriberConfig holds durable consumer settings.
type SubscriberConfig struct {
	URL            string
	StreamName     string
	DurableName    string
	QueueGroup     string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
	Deliver        DeliverPolicy
}

// DefaultSubscriberConfig returns production defaults for a durable consumer.
// SubscribersCount is pinned to 1 in the subscriber itself: both pipeline
// consumers rely on in-order delivery within a stream.
func DefaultSubscriberConfig(url, streamName, durableName string) SubscriberConfig {
	return SubscriberConfig{
		URL:            url,
		StreamName:     streamName,
		DurableName:    durableName,
		QueueGroup:     durableName,
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		MaxAckPending:  1000,
		CloseTimeout:   30 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		Deliver:        DeliverNew,
	}
}

// StreamConfig defines one JetStream stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// UserActionsStreamConfig returns the stream configuration for the
// user-actions topic with the given retention.
func UserActionsStreamConfig(retention time.Duration, maxBytes int64, dedupWindow time.Duration) StreamConfig {
	return StreamConfig{
		Name:            StreamUserActions,
		Subjects:        []string{event.TopicUserActions},
		MaxAge:          retention,
		MaxBytes:        maxBytes,
		MaxMsgs:         -1, // Unlimited
		DuplicateWindow: dedupWindow,
		Replicas:        1,
	}
}

// EventSimilarityStreamConfig returns the stream configuration for the
// similarity topic with the given retention.
func EventSimilarityStreamConfig(retention time.Duration, maxBytes int64, dedupWindow time.Duration) StreamConfig {
	return StreamConfig{
		Name:            StreamEventSimilarity,
		Subjects:        []string{event.TopicEventSimilarity},
		MaxAge:          retention,
		MaxBytes:        maxBytes,
		MaxMsgs:         -1,
		DuplicateWindow: dedupWindow,
		Replicas:        1,
	}
}

// PoisonStreamConfig returns the stream configuration for the poison
// queue topic. Poisoned messages are kept for manual inspection and replay.
func PoisonStreamConfig(topic string, retention time.Duration) StreamConfig {
	return StreamConfig{
		Name:            StreamPoison,
		Subjects:        []string{topic},
		MaxAge:          retention,
		MaxBytes:        1 << 30, // 1GB is plenty for a failure queue
		MaxMsgs:         -1,
		DuplicateWindow: 0,
		Replicas:        1,
	}
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,  // 1GB
		JetStreamMaxStore: 10 << 30, // 10GB
	}
}

// CircuitBreakerConfig holds circuit breaker settings for the publisher.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Consecutive failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
