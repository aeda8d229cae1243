// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package rpc

import (
	"fmt"
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

// Fully qualified service names.
const (
	CollectorServiceName       = "eventstats.collector.v1.UserActionController"
	RecommendationsServiceName = "eventstats.analyzer.v1.Recommendations"
)

// Wire action type values carried by UserActionRequest.
const (
	WireActionView     = "ACTION_VIEW"
	WireActionRegister = "ACTION_REGISTER"
	WireActionLike     = "ACTION_LIKE"
)

// ActionTypeFromWire maps a wire enum value to the internal action type.
// Unknown values are an error, surfaced to the caller as InvalidArgument.
func ActionTypeFromWire(s string) (event.ActionType, error) {
	switch s {
	case WireActionView:
		return event.ActionView, nil
	case WireActionRegister:
		return event.ActionRegister, nil
	case WireActionLike:
		return event.ActionLike, nil
	default:
		return "", fmt.Errorf("unknown action type %q", s)
	}
}

// ActionTypeToWire maps an internal action type to its wire enum value.
func ActionTypeToWire(t event.ActionType) string {
	switch t {
	case event.ActionView:
		return WireActionView
	case event.ActionRegister:
		return WireActionRegister
	case event.ActionLike:
		return WireActionLike
	default:
		return ""
	}
}

// UserActionRequest is the collector's ingestion message.
type UserActionRequest struct {
	UserID     int32     `json:"user_id"`
	EventID    int32     `json:"event_id"`
	ActionType string    `json:"action_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Empty is the collector's acknowledgment. The ack confirms the record was
// handed to the stream producer, not that it was consumed.
type Empty struct{}

// UserPredictionsRequest asks for predicted scores for one user.
type UserPredictionsRequest struct {
	UserID     int32 `json:"user_id"`
	MaxResults int32 `json:"max_results"`
}

// SimilarEventsRequest asks for events similar to one event, excluding
// events the user already interacted with.
type SimilarEventsRequest struct {
	EventID    int32 `json:"event_id"`
	UserID     int32 `json:"user_id"`
	MaxResults int32 `json:"max_results"`
}

// InteractionsCountRequest asks for total interaction weight per event.
type InteractionsCountRequest struct {
	EventIDs []int32 `json:"event_ids"`
}

// RecommendedEvent is one streamed result row, shared by all three queries.
type RecommendedEvent struct {
	EventID int32   `json:"event_id"`
	Score   float64 `json:"score"`
}
