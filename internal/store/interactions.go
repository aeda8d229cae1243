// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
)

// UpsertMaxWeight records a user interaction with its weight, keeping the
// maximum weight ever seen for the (user, event) pair. A repeat with a lower
// weight is a no-op; an equal weight refreshes only the timestamp. The whole
// decision runs in one statement, so concurrent retries of the same record
// stay idempotent.
func (db *DB) UpsertMaxWeight(ctx context.Context, userID, eventID int32, actionType event.ActionType, weight float64, ts time.Time) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_event_interaction (user_id, event_id, action_type, weight, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, event_id) DO UPDATE SET
			action_type = excluded.action_type,
			weight = excluded.weight,
			updated_at = excluded.updated_at
		WHERE excluded.weight >= weight`,
		userID, eventID, string(actionType), weight, ts)
	metrics.RecordDBQuery("upsert", "user_event_interaction", start, err)
	if err != nil {
		return fmt.Errorf("upsert interaction (%d, %d): %w", userID, eventID, err)
	}
	return nil
}

// SeedActionWeights stores the configured weight table. Called once on
// startup; reseeding with changed weights overwrites the previous values.
func (db *DB) SeedActionWeights(ctx context.Context, weights event.Weights) error {
	for actionType, weight := range weights {
		start := time.Now()
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO action_weight (action_type, weight)
			VALUES (?, ?)
			ON CONFLICT (action_type) DO UPDATE SET weight = excluded.weight`,
			string(actionType), weight)
		metrics.RecordDBQuery("upsert", "action_weight", start, err)
		if err != nil {
			return fmt.Errorf("seed weight for %s: %w", actionType, err)
		}
	}
	return nil
}

// ActionWeights returns the stored weight table.
func (db *DB) ActionWeights(ctx context.Context) (event.Weights, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT action_type, weight FROM action_weight`)
	metrics.RecordDBQuery("select", "action_weight", start, err)
	if err != nil {
		return nil, fmt.Errorf("query action weights: %w", err)
	}
	defer rows.Close()

	weights := make(event.Weights)
	for rows.Next() {
		var actionType string
		var weight float64
		if err := rows.Scan(&actionType, &weight); err != nil {
			return nil, fmt.Errorf("scan action weight: %w", err)
		}
		weights[event.ActionType(actionType)] = weight
	}
	return weights, rows.Err()
}

// InteractionWeights returns all of a user's stored event weights.
// An unknown user yields an empty map.
func (db *DB) InteractionWeights(ctx context.Context, userID int32) (map[int32]float64, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT event_id, weight
		FROM user_event_interaction
		WHERE user_id = ?`,
		userID)
	metrics.RecordDBQuery("select", "user_event_interaction", start, err)
	if err != nil {
		return nil, fmt.Errorf("query interactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	weights := make(map[int32]float64)
	for rows.Next() {
		var eventID int32
		var weight float64
		if err := rows.Scan(&eventID, &weight); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		weights[eventID] = weight
	}
	return weights, rows.Err()
}

// RecentEventIDs returns the IDs of the user's most recently updated
// interactions, newest first, at most limit entries.
func (db *DB) RecentEventIDs(ctx context.Context, userID int32, limit int) ([]int32, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT event_id
		FROM user_event_interaction
		WHERE user_id = ?
		ORDER BY updated_at DESC, event_id
		LIMIT ?`,
		userID, limit)
	metrics.RecordDBQuery("select", "user_event_interaction", start, err)
	if err != nil {
		return nil, fmt.Errorf("query recent interactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SumWeightsForEvents returns, for each requested event, the sum of the
// stored max weights over all users who interacted with it. Events nobody
// interacted with map to 0.
func (db *DB) SumWeightsForEvents(ctx context.Context, eventIDs []int32) (map[int32]float64, error) {
	sums := make(map[int32]float64, len(eventIDs))
	for _, id := range eventIDs {
		sums[id] = 0
	}
	if len(eventIDs) == 0 {
		return sums, nil
	}

	query, args := inQuery(`
		SELECT event_id, SUM(weight)
		FROM user_event_interaction
		WHERE event_id IN (%s)
		GROUP BY event_id`, eventIDs)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "user_event_interaction", start, err)
	if err != nil {
		return nil, fmt.Errorf("query interaction sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int32
		var sum float64
		if err := rows.Scan(&eventID, &sum); err != nil {
			return nil, fmt.Errorf("scan interaction sum: %w", err)
		}
		sums[eventID] = sum
	}
	return sums, rows.Err()
}

// inQuery expands an IN (%s) placeholder list for the given IDs.
func inQuery(format string, ids []int32) (string, []interface{}) {
	placeholders := ""
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = id
	}
	return fmt.Sprintf(format, placeholders), args
}
