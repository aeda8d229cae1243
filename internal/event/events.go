// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package event

import (
	"fmt"
	"strconv"
	"time"
)

// SchemaVersion is the current stream record schema version.
// Increment this when making breaking changes to UserAction or EventSimilarity.
const SchemaVersion = 1

// Topic names for the two pipeline streams.
// These are NATS subjects; the JetStream stream names are derived in the
// stream package because stream names cannot contain dots.
const (
	// TopicUserActions carries one record per user interaction.
	TopicUserActions = "stats.user-actions.v1"
	// TopicEventSimilarity carries updated pairwise similarity records.
	TopicEventSimilarity = "stats.events-similarity.v1"
)

// ActionType classifies a user interaction with an event.
type ActionType string

// Interaction kinds, ordered by engagement intensity.
const (
	ActionView     ActionType = "VIEW"
	ActionRegister ActionType = "REGISTER"
	ActionLike     ActionType = "LIKE"
)

// ParseActionType maps a wire string to an ActionType.
// Unknown values are a decode error, never a silent zero weight.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionView:
		return ActionView, nil
	case ActionRegister:
		return ActionRegister, nil
	case ActionLike:
		return ActionLike, nil
	default:
		return "", fmt.Errorf("unknown action type %q", s)
	}
}

// UserAction is one user interaction with an event, as carried on
// TopicUserActions. The stream is at-least-once; consumers must tolerate
// duplicate delivery of the same logical action.
type UserAction struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	UserID     int32      `json:"user_id"`
	EventID    int32      `json:"event_id"`
	ActionType ActionType `json:"action_type"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Validate checks required fields and returns an error if validation fails.
func (a *UserAction) Validate() error {
	if a.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if a.EventID <= 0 {
		return &ValidationError{Field: "event_id", Message: "must be positive"}
	}
	if _, err := ParseActionType(string(a.ActionType)); err != nil {
		return &ValidationError{Field: "action_type", Message: err.Error()}
	}
	if a.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	return nil
}

// PartitionKey routes all actions of one user through one ordered partition.
// Ordering per (user, event) is what keeps the monotonic max-weight rule safe.
func (a *UserAction) PartitionKey() string {
	return strconv.FormatInt(int64(a.UserID), 10)
}

// EventSimilarity is the current similarity score for one unordered event
// pair, as carried on TopicEventSimilarity. EventA < EventB always holds;
// use NewEventSimilarity or CanonicalPair to build records.
type EventSimilarity struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	EventA    int32     `json:"event_a"`
	EventB    int32     `json:"event_b"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventSimilarity builds a record with the canonical (min, max) pair
// ordering and the current schema version.
func NewEventSimilarity(a, b int32, score float64, ts time.Time) *EventSimilarity {
	lo, hi := CanonicalPair(a, b)
	return &EventSimilarity{
		SchemaVersion: SchemaVersion,
		EventA:        lo,
		EventB:        hi,
		Score:         score,
		Timestamp:     ts,
	}
}

// Validate checks required fields and the canonical pair ordering.
func (s *EventSimilarity) Validate() error {
	if s.EventA <= 0 {
		return &ValidationError{Field: "event_a", Message: "must be positive"}
	}
	if s.EventB <= 0 {
		return &ValidationError{Field: "event_b", Message: "must be positive"}
	}
	if s.EventA >= s.EventB {
		return &ValidationError{Field: "event_a", Message: "must be less than event_b"}
	}
	if s.Score < 0 {
		return &ValidationError{Field: "score", Message: "must be non-negative"}
	}
	if s.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	return nil
}

// PartitionKey routes all updates for one pair through one ordered partition.
// Format: "<eventA>_<eventB>" with the canonical ordering.
func (s *EventSimilarity) PartitionKey() string {
	return PairPartitionKey(s.EventA, s.EventB)
}

// CanonicalPair returns the pair in (min, max) order. The aggregator and the
// similarity writer must agree on pair identity, so both use this helper.
func CanonicalPair(a, b int32) (int32, int32) {
	if a > b {
		return b, a
	}
	return a, b
}

// PairPartitionKey returns the stream partition key for an event pair.
func PairPartitionKey(a, b int32) string {
	lo, hi := CanonicalPair(a, b)
	return strconv.FormatInt(int64(lo), 10) + "_" + strconv.FormatInt(int64(hi), 10)
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
