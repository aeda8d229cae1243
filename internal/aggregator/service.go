// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
	"github.com/IljiaPolstianoy/eventstats/internal/stream"
)

// SimilarityPublisher is the subset of the stream publisher the service
// needs. Satisfied by *stream.Publisher; narrowed for testing.
type SimilarityPublisher interface {
	PublishRecord(ctx context.Context, topic, msgID, partitionKey string, payload []byte) error
}

// ActionSubscriber yields the ordered user-action stream.
// Satisfied by *stream.Subscriber.
type ActionSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Service consumes the user-action stream, maintains similarity state and
// publishes score updates. It holds all model state in memory; the stream
// itself is the durable log, replayed on restart via a DeliverAll consumer.
type Service struct {
	state      *State
	subscriber ActionSubscriber
	publisher  SimilarityPublisher
	serializer *event.Serializer
}

// NewService creates an aggregator service over the given transport.
func NewService(weights event.Weights, sub ActionSubscriber, pub SimilarityPublisher) *Service {
	return &Service{
		state:      NewState(weights),
		subscriber: sub,
		publisher:  pub,
		serializer: event.NewSerializer(),
	}
}

// Serve consumes actions until context cancellation. Implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, event.TopicUserActions)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", event.TopicUserActions, err)
	}

	logging.Info().Str("topic", event.TopicUserActions).Msg("Aggregator consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handleMessage(ctx, msg)
		}
	}
}

// handleMessage decodes and applies one action. Undecodable records are
// skipped with an ack so one bad record cannot halt the stream; publish
// failures nack the action for redelivery, relying on publish-side
// deduplication to keep the retry idempotent.
func (s *Service) handleMessage(ctx context.Context, msg *message.Message) {
	action, err := s.serializer.UnmarshalUserAction(msg.Payload)
	if err != nil {
		metrics.StreamDecodeFailures.WithLabelValues(event.TopicUserActions, "unmarshal").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable action")
		msg.Ack()
		return
	}

	if err := s.process(ctx, action); err != nil {
		logging.Error().Err(err).
			Int32("user_id", action.UserID).
			Int32("event_id", action.EventID).
			Msg("Failed to publish similarity updates")
		msg.Nack()
		return
	}

	msg.Ack()
	metrics.StreamRecordsConsumed.WithLabelValues(event.TopicUserActions, "aggregator").Inc()
}

func (s *Service) process(ctx context.Context, action *event.UserAction) error {
	start := time.Now()
	updates, err := s.state.Apply(action)
	if err != nil {
		// Unknown action weight: skip the record, state untouched.
		metrics.AggregatorActionsIgnored.WithLabelValues("unknown_action").Inc()
		logging.Warn().Err(err).Int32("user_id", action.UserID).Msg("Action skipped")
		return nil
	}
	if updates == nil {
		metrics.AggregatorActionsIgnored.WithLabelValues("weight_not_higher").Inc()
		return nil
	}

	metrics.RecordApply(string(action.ActionType), len(updates), start)
	metrics.AggregatorTrackedEvents.Set(float64(s.state.TrackedEvents()))
	metrics.AggregatorTrackedPairs.Set(float64(s.state.TrackedPairs()))

	for _, sim := range updates {
		payload, err := s.serializer.MarshalSimilarity(sim)
		if err != nil {
			return fmt.Errorf("marshal similarity (%d, %d): %w", sim.EventA, sim.EventB, err)
		}
		// Message ID ties the update to its triggering action so broker
		// dedup collapses republish after a nack.
		msgID := fmt.Sprintf("%s_%d_%d_%d", sim.PartitionKey(), action.UserID, action.EventID, action.Timestamp.UnixNano())
		if err := s.publisher.PublishRecord(ctx, event.TopicEventSimilarity, msgID, sim.PartitionKey(), payload); err != nil {
			return fmt.Errorf("publish similarity (%d, %d): %w", sim.EventA, sim.EventB, err)
		}
	}
	return nil
}

// State exposes the current model state for health reporting and tests.
func (s *Service) State() *State {
	return s.state
}

var _ ActionSubscriber = (*stream.Subscriber)(nil)
var _ SimilarityPublisher = (*stream.Publisher)(nil)
