// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

type capturedRecord struct {
	topic        string
	msgID        string
	partitionKey string
	payload      []byte
}

type mockPublisher struct {
	records []capturedRecord
	failErr error
}

func (m *mockPublisher) PublishRecord(ctx context.Context, topic, msgID, partitionKey string, payload []byte) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.records = append(m.records, capturedRecord{topic, msgID, partitionKey, payload})
	return nil
}

func newTestService(pub *mockPublisher) *Service {
	return NewService(event.DefaultWeights(), nil, pub)
}

func actionMessage(t *testing.T, a *event.UserAction) *message.Message {
	t.Helper()
	payload, err := event.NewSerializer().MarshalUserAction(a)
	if err != nil {
		t.Fatal(err)
	}
	return message.NewMessage("test-"+a.PartitionKey(), payload)
}

func TestServicePublishesSimilarityUpdates(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(pub)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	svc.handleMessage(ctx, actionMessage(t, action(1, 10, event.ActionView, ts)))
	svc.handleMessage(ctx, actionMessage(t, action(1, 20, event.ActionLike, ts.Add(time.Minute))))

	if len(pub.records) != 1 {
		t.Fatalf("published %d records, want 1", len(pub.records))
	}
	rec := pub.records[0]
	if rec.topic != event.TopicEventSimilarity {
		t.Errorf("topic = %q, want %q", rec.topic, event.TopicEventSimilarity)
	}
	if rec.partitionKey != "10_20" {
		t.Errorf("partition key = %q, want 10_20", rec.partitionKey)
	}

	sim, err := event.NewSerializer().UnmarshalSimilarity(rec.payload)
	if err != nil {
		t.Fatalf("published payload does not decode: %v", err)
	}
	if sim.EventA != 10 || sim.EventB != 20 {
		t.Errorf("pair = (%d, %d), want (10, 20)", sim.EventA, sim.EventB)
	}
}

func TestServiceSkipsUndecodableRecord(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(pub)

	msg := message.NewMessage("bad", []byte("not json"))
	svc.handleMessage(context.Background(), msg)

	if len(pub.records) != 0 {
		t.Errorf("published %d records for a bad payload, want 0", len(pub.records))
	}
	// State untouched: the next valid action still counts as first interaction.
	if svc.State().TrackedEvents() != 0 {
		t.Error("state mutated by undecodable record")
	}
}

func TestServiceNoOpPublishesNothing(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(pub)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	svc.handleMessage(ctx, actionMessage(t, action(1, 10, event.ActionLike, ts)))
	published := len(pub.records)

	// Weaker repeat: no new records.
	svc.handleMessage(ctx, actionMessage(t, action(1, 10, event.ActionView, ts.Add(time.Minute))))
	if len(pub.records) != published {
		t.Errorf("weaker repeat published %d new records, want 0", len(pub.records)-published)
	}
}

func TestServicePublishFailureKeepsStateConsistent(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestService(pub)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	svc.handleMessage(ctx, actionMessage(t, action(1, 10, event.ActionView, ts)))

	pub.failErr = errors.New("broker unavailable")
	err := svc.process(ctx, action(1, 20, event.ActionLike, ts.Add(time.Minute)))
	if err == nil {
		t.Fatal("process() = nil error, want publish error")
	}

	// The action was applied before publishing failed; redelivery of the
	// same record is a weight no-op and the next stronger action on the
	// pair re-emits the current score.
	pub.failErr = nil
	if err := svc.process(ctx, action(2, 10, event.ActionLike, ts.Add(2*time.Minute))); err != nil {
		t.Fatalf("process() after recovery error = %v", err)
	}
	if err := svc.process(ctx, action(2, 20, event.ActionLike, ts.Add(3*time.Minute))); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if len(pub.records) == 0 {
		t.Error("no similarity published after recovery")
	}
}
