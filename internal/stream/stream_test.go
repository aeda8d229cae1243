// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package stream

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

func TestStreamNameForTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{event.TopicUserActions, StreamUserActions},
		{event.TopicEventSimilarity, StreamEventSimilarity},
		{"unknown.topic", ""},
	}

	for _, tt := range tests {
		if got := StreamNameForTopic(tt.topic); got != tt.want {
			t.Errorf("StreamNameForTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestStreamConfigs(t *testing.T) {
	actions := UserActionsStreamConfig(7*24*time.Hour, 10<<30, 2*time.Minute)
	if actions.Name != StreamUserActions {
		t.Errorf("Name = %q, want %q", actions.Name, StreamUserActions)
	}
	if len(actions.Subjects) != 1 || actions.Subjects[0] != event.TopicUserActions {
		t.Errorf("Subjects = %v, want [%s]", actions.Subjects, event.TopicUserActions)
	}
	if strings.Contains(actions.Name, ".") {
		t.Error("stream name must not contain dots")
	}

	sims := EventSimilarityStreamConfig(7*24*time.Hour, 10<<30, 2*time.Minute)
	if sims.Subjects[0] != event.TopicEventSimilarity {
		t.Errorf("Subjects = %v, want [%s]", sims.Subjects, event.TopicEventSimilarity)
	}
	if sims.DuplicateWindow != 2*time.Minute {
		t.Errorf("DuplicateWindow = %v, want 2m", sims.DuplicateWindow)
	}
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf))

	adapter.Info("stream ready", watermill.LogFields{"stream": StreamUserActions})
	if !strings.Contains(buf.String(), "stream ready") {
		t.Errorf("log output missing message: %s", buf.String())
	}
	if !strings.Contains(buf.String(), StreamUserActions) {
		t.Errorf("log output missing field: %s", buf.String())
	}

	buf.Reset()
	child := adapter.With(watermill.LogFields{"consumer": "aggregator"})
	child.Debug("polling", nil)
	if !strings.Contains(buf.String(), "aggregator") {
		t.Errorf("With() field not attached: %s", buf.String())
	}
}

type mockJetStream struct {
	streams map[string]jetstream.StreamConfig
	created int
	updated int
}

func newMockJetStream() *mockJetStream {
	return &mockJetStream{streams: make(map[string]jetstream.StreamConfig)}
}

func (m *mockJetStream) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	if _, ok := m.streams[name]; !ok {
		return nil, jetstream.ErrStreamNotFound
	}
	return nil, nil
}

func (m *mockJetStream) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.streams[cfg.Name] = cfg
	m.created++
	return nil, nil
}

func (m *mockJetStream) UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.streams[cfg.Name] = cfg
	m.updated++
	return nil, nil
}

func (m *mockJetStream) DeleteStream(ctx context.Context, name string) error {
	delete(m.streams, name)
	return nil
}

func TestInitializerEnsureStream(t *testing.T) {
	js := newMockJetStream()
	cfg := UserActionsStreamConfig(24*time.Hour, 1<<30, time.Minute)

	init, err := NewInitializer(js, &cfg)
	if err != nil {
		t.Fatalf("NewInitializer() error = %v", err)
	}

	// First call creates the stream.
	if _, err := init.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if js.created != 1 || js.updated != 0 {
		t.Errorf("created = %d, updated = %d, want 1, 0", js.created, js.updated)
	}

	// Second call updates in place.
	if _, err := init.EnsureStream(context.Background()); err != nil {
		t.Fatalf("EnsureStream() second call error = %v", err)
	}
	if js.updated != 1 {
		t.Errorf("updated = %d, want 1", js.updated)
	}

	stored := js.streams[StreamUserActions]
	if stored.Storage != jetstream.FileStorage {
		t.Error("stream must use file storage")
	}
	if stored.Duplicates != time.Minute {
		t.Errorf("Duplicates = %v, want 1m", stored.Duplicates)
	}
}

func TestNewInitializerRequiresArgs(t *testing.T) {
	cfg := DefaultSubscriberConfig("nats://127.0.0.1:4222", StreamUserActions, "test")
	if cfg.StreamName != StreamUserActions {
		t.Errorf("StreamName = %q", cfg.StreamName)
	}

	if _, err := NewInitializer(nil, nil); err == nil {
		t.Error("NewInitializer(nil, nil) = nil error, want error")
	}
	streamCfg := UserActionsStreamConfig(time.Hour, 1<<20, time.Minute)
	if _, err := NewInitializer(nil, &streamCfg); err == nil {
		t.Error("NewInitializer(nil, cfg) = nil error, want error")
	}
}
