// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package event

import (
	"strings"
	"testing"
	"time"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		input   string
		want    ActionType
		wantErr bool
	}{
		{"VIEW", ActionView, false},
		{"REGISTER", ActionRegister, false},
		{"LIKE", ActionLike, false},
		{"like", "", true},
		{"DISLIKE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseActionType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseActionType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseActionType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUserActionValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		action    UserAction
		wantField string
	}{
		{
			name:   "valid",
			action: UserAction{UserID: 1, EventID: 10, ActionType: ActionView, Timestamp: now},
		},
		{
			name:      "zero user",
			action:    UserAction{EventID: 10, ActionType: ActionView, Timestamp: now},
			wantField: "user_id",
		},
		{
			name:      "negative event",
			action:    UserAction{UserID: 1, EventID: -3, ActionType: ActionView, Timestamp: now},
			wantField: "event_id",
		},
		{
			name:      "unknown action",
			action:    UserAction{UserID: 1, EventID: 10, ActionType: "BOOKMARK", Timestamp: now},
			wantField: "action_type",
		},
		{
			name:      "missing timestamp",
			action:    UserAction{UserID: 1, EventID: 10, ActionType: ActionLike},
			wantField: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error on %s", tt.wantField)
			}
			if !strings.HasPrefix(err.Error(), tt.wantField) {
				t.Errorf("Validate() = %q, want field %s", err, tt.wantField)
			}
		})
	}
}

func TestCanonicalPair(t *testing.T) {
	tests := []struct {
		a, b             int32
		wantLo, wantHi   int32
		wantPartitionKey string
	}{
		{10, 20, 10, 20, "10_20"},
		{20, 10, 10, 20, "10_20"},
		{7, 7, 7, 7, "7_7"},
	}

	for _, tt := range tests {
		lo, hi := CanonicalPair(tt.a, tt.b)
		if lo != tt.wantLo || hi != tt.wantHi {
			t.Errorf("CanonicalPair(%d, %d) = (%d, %d), want (%d, %d)",
				tt.a, tt.b, lo, hi, tt.wantLo, tt.wantHi)
		}
		if key := PairPartitionKey(tt.a, tt.b); key != tt.wantPartitionKey {
			t.Errorf("PairPartitionKey(%d, %d) = %q, want %q", tt.a, tt.b, key, tt.wantPartitionKey)
		}
	}
}

func TestEventSimilarityValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	valid := NewEventSimilarity(20, 10, 0.5, now)
	if valid.EventA != 10 || valid.EventB != 20 {
		t.Fatalf("NewEventSimilarity did not canonicalize: (%d, %d)", valid.EventA, valid.EventB)
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	swapped := &EventSimilarity{EventA: 20, EventB: 10, Score: 0.5, Timestamp: now}
	if err := swapped.Validate(); err == nil {
		t.Error("Validate() accepted non-canonical pair ordering")
	}

	selfPair := &EventSimilarity{EventA: 10, EventB: 10, Score: 0.5, Timestamp: now}
	if err := selfPair.Validate(); err == nil {
		t.Error("Validate() accepted a self pair")
	}

	negative := &EventSimilarity{EventA: 10, EventB: 20, Score: -0.1, Timestamp: now}
	if err := negative.Validate(); err == nil {
		t.Error("Validate() accepted a negative score")
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"all equal", Weights{ActionView: 0.5, ActionRegister: 0.5, ActionLike: 0.5}, false},
		{"missing register", Weights{ActionView: 0.4, ActionLike: 1.0}, true},
		{"zero weight", Weights{ActionView: 0, ActionRegister: 0.8, ActionLike: 1.0}, true},
		{"above one", Weights{ActionView: 0.4, ActionRegister: 0.8, ActionLike: 1.5}, true},
		{"inverted order", Weights{ActionView: 0.9, ActionRegister: 0.8, ActionLike: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.weights.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	s := NewSerializer()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	action := &UserAction{SchemaVersion: SchemaVersion, UserID: 1, EventID: 10, ActionType: ActionLike, Timestamp: now}
	data, err := s.MarshalUserAction(action)
	if err != nil {
		t.Fatalf("MarshalUserAction() error = %v", err)
	}
	decoded, err := s.UnmarshalUserAction(data)
	if err != nil {
		t.Fatalf("UnmarshalUserAction() error = %v", err)
	}
	if *decoded != *action {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, action)
	}
}

func TestSerializerRejectsBadPayload(t *testing.T) {
	s := NewSerializer()

	tests := []struct {
		name    string
		payload string
	}{
		{"garbage bytes", "not json"},
		{"unknown action type", `{"user_id":1,"event_id":10,"action_type":"PURCHASE","timestamp":"2026-03-01T10:00:00Z"}`},
		{"missing user", `{"event_id":10,"action_type":"VIEW","timestamp":"2026-03-01T10:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.UnmarshalUserAction([]byte(tt.payload)); err == nil {
				t.Errorf("UnmarshalUserAction(%q) = nil error, want decode error", tt.payload)
			}
		})
	}
}

func TestSerializerDefaultsSchemaVersion(t *testing.T) {
	s := NewSerializer()

	// Legacy record without an explicit schema_version field.
	payload := `{"user_id":1,"event_id":10,"action_type":"VIEW","timestamp":"2026-03-01T10:00:00Z"}`
	decoded, err := s.UnmarshalUserAction([]byte(payload))
	if err != nil {
		t.Fatalf("UnmarshalUserAction() error = %v", err)
	}
	if decoded.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", decoded.SchemaVersion, SchemaVersion)
	}
}
