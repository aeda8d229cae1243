// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package store

import (
	"context"
	"fmt"
)

// initSchema creates the tables if they don't exist. All statements are
// idempotent so reopening an existing database is safe.
func (db *DB) initSchema(ctx context.Context) error {
	queries := []string{
		// One row per (user, event): the user's strongest interaction so far.
		// weight only ever increases; equal-weight repeats refresh updated_at.
		`CREATE TABLE IF NOT EXISTS user_event_interaction (
			user_id INTEGER NOT NULL,
			event_id INTEGER NOT NULL,
			action_type VARCHAR NOT NULL,
			weight DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, event_id)
		)`,

		// The weight table the interactions were scored with, seeded from
		// config on startup so stored rows can be audited against it.
		`CREATE TABLE IF NOT EXISTS action_weight (
			action_type VARCHAR NOT NULL PRIMARY KEY,
			weight DOUBLE NOT NULL
		)`,

		// One row per unordered event pair, canonical order event_a < event_b.
		// Holds the latest similarity score observed on the stream.
		`CREATE TABLE IF NOT EXISTS event_similarity (
			event_a INTEGER NOT NULL,
			event_b INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (event_a, event_b),
			CHECK (event_a < event_b)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_interaction_event
			ON user_event_interaction (event_id)`,

		`CREATE INDEX IF NOT EXISTS idx_similarity_event_b
			ON event_similarity (event_b)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}
