// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
)

// InteractionStore is the write surface the action writer needs.
// Satisfied by *store.DB.
type InteractionStore interface {
	UpsertMaxWeight(ctx context.Context, userID, eventID int32, actionType event.ActionType, weight float64, ts time.Time) error
}

// SimilarityStore is the write surface the similarity writer needs.
// Satisfied by *store.DB.
type SimilarityStore interface {
	UpsertSimilarity(ctx context.Context, sim *event.EventSimilarity) error
}

// ActionWriter makes the raw interaction stream durable. It enforces the
// monotonic max-weight rule itself through the store's conditional upsert:
// it is an independent consumer group and shares no state with the
// aggregator.
//
// Handle runs under the stream router: a nil return acks the message, an
// error triggers retry and eventually the poison queue. Undecodable records
// are counted and acked so they cannot wedge the consumer.
type ActionWriter struct {
	store      InteractionStore
	weights    event.Weights
	serializer *event.Serializer
}

// NewActionWriter creates the interaction writer.
func NewActionWriter(st InteractionStore, weights event.Weights) *ActionWriter {
	return &ActionWriter{
		store:      st,
		weights:    weights,
		serializer: event.NewSerializer(),
	}
}

// Handle writes one action. Implements message.NoPublishHandlerFunc.
func (w *ActionWriter) Handle(msg *message.Message) error {
	action, err := w.serializer.UnmarshalUserAction(msg.Payload)
	if err != nil {
		metrics.StreamDecodeFailures.WithLabelValues(event.TopicUserActions, "unmarshal").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable action")
		return nil
	}

	weight, ok := w.weights.For(action.ActionType)
	if !ok {
		metrics.StreamDecodeFailures.WithLabelValues(event.TopicUserActions, "unknown_action").Inc()
		logging.Warn().Str("action_type", string(action.ActionType)).Msg("Skipping action with no configured weight")
		return nil
	}

	if err := w.store.UpsertMaxWeight(msg.Context(), action.UserID, action.EventID, action.ActionType, weight, action.Timestamp); err != nil {
		return fmt.Errorf("store interaction %d/%d: %w", action.UserID, action.EventID, err)
	}

	metrics.StreamRecordsConsumed.WithLabelValues(event.TopicUserActions, "action-writer").Inc()
	return nil
}

// SimilarityWriter makes the aggregator's similarity stream durable with
// last-write-wins semantics: the stream is ordered per pair, so the latest
// record is the current score.
type SimilarityWriter struct {
	store      SimilarityStore
	serializer *event.Serializer
}

// NewSimilarityWriter creates the similarity writer.
func NewSimilarityWriter(st SimilarityStore) *SimilarityWriter {
	return &SimilarityWriter{
		store:      st,
		serializer: event.NewSerializer(),
	}
}

// Handle writes one similarity record. Implements message.NoPublishHandlerFunc.
func (w *SimilarityWriter) Handle(msg *message.Message) error {
	sim, err := w.serializer.UnmarshalSimilarity(msg.Payload)
	if err != nil {
		metrics.StreamDecodeFailures.WithLabelValues(event.TopicEventSimilarity, "unmarshal").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable similarity record")
		return nil
	}

	if err := w.store.UpsertSimilarity(msg.Context(), sim); err != nil {
		return fmt.Errorf("store similarity %d_%d: %w", sim.EventA, sim.EventB, err)
	}

	metrics.StreamRecordsConsumed.WithLabelValues(event.TopicEventSimilarity, "similarity-writer").Inc()
	return nil
}
