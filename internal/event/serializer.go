// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package event

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles stream record encoding/decoding. Records are versioned
// JSON: the schema_version field plus additive evolution keeps old consumers
// reading new records.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// MarshalUserAction converts a user action to payload bytes.
func (s *Serializer) MarshalUserAction(a *UserAction) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("validate user action: %w", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal user action: %w", err)
	}
	return data, nil
}

// UnmarshalUserAction converts payload bytes to a user action.
// Records failing either decode or validation are per-record errors: the
// consumer skips them and keeps its loop running.
func (s *Serializer) UnmarshalUserAction(data []byte) (*UserAction, error) {
	var a UserAction
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal user action: %w", err)
	}
	if a.SchemaVersion == 0 {
		a.SchemaVersion = SchemaVersion
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("validate user action: %w", err)
	}
	return &a, nil
}

// MarshalSimilarity converts a similarity record to payload bytes.
func (s *Serializer) MarshalSimilarity(es *EventSimilarity) ([]byte, error) {
	if err := es.Validate(); err != nil {
		return nil, fmt.Errorf("validate similarity: %w", err)
	}

	data, err := json.Marshal(es)
	if err != nil {
		return nil, fmt.Errorf("marshal similarity: %w", err)
	}
	return data, nil
}

// UnmarshalSimilarity converts payload bytes to a similarity record.
func (s *Serializer) UnmarshalSimilarity(data []byte) (*EventSimilarity, error) {
	var es EventSimilarity
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("unmarshal similarity: %w", err)
	}
	if es.SchemaVersion == 0 {
		es.SchemaVersion = SchemaVersion
	}
	if err := es.Validate(); err != nil {
		return nil, fmt.Errorf("validate similarity: %w", err)
	}
	return &es, nil
}
