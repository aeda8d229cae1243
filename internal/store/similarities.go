// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
)

// Neighbor is one event similar to a reference event.
type Neighbor struct {
	EventID int32
	Score   float64
}

// UpsertSimilarity stores the latest score for a pair. The input must already
// be canonical (EventA < EventB); last write wins because the similarity
// stream is ordered per pair.
func (db *DB) UpsertSimilarity(ctx context.Context, sim *event.EventSimilarity) error {
	if err := sim.Validate(); err != nil {
		return fmt.Errorf("invalid similarity record: %w", err)
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO event_similarity (event_a, event_b, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (event_a, event_b) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at`,
		sim.EventA, sim.EventB, sim.Score, sim.Timestamp)
	metrics.RecordDBQuery("upsert", "event_similarity", start, err)
	if err != nil {
		return fmt.Errorf("upsert similarity (%d, %d): %w", sim.EventA, sim.EventB, err)
	}
	return nil
}

// NeighborsOf returns all events with a stored similarity to the given event,
// looking at both sides of the canonical pair ordering, best score first.
func (db *DB) NeighborsOf(ctx context.Context, eventID int32) ([]Neighbor, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT event_b AS other, score FROM event_similarity WHERE event_a = ?
		UNION ALL
		SELECT event_a AS other, score FROM event_similarity WHERE event_b = ?
		ORDER BY score DESC, other`,
		eventID, eventID)
	metrics.RecordDBQuery("select", "event_similarity", start, err)
	if err != nil {
		return nil, fmt.Errorf("query neighbors of event %d: %w", eventID, err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.EventID, &n.Score); err != nil {
			return nil, fmt.Errorf("scan neighbor row: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// NeighborsOfAny returns, for each event in eventIDs, its stored neighbors.
// Used for candidate generation from a user's recent interactions.
func (db *DB) NeighborsOfAny(ctx context.Context, eventIDs []int32) (map[int32][]Neighbor, error) {
	result := make(map[int32][]Neighbor, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	query, args := inQuery(`
		SELECT event_a AS ref, event_b AS other, score
		FROM event_similarity WHERE event_a IN (%s)`, eventIDs)
	query2, args2 := inQuery(`
		SELECT event_b AS ref, event_a AS other, score
		FROM event_similarity WHERE event_b IN (%s)`, eventIDs)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query+" UNION ALL "+query2, append(args, args2...)...)
	metrics.RecordDBQuery("select", "event_similarity", start, err)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref int32
		var n Neighbor
		if err := rows.Scan(&ref, &n.EventID, &n.Score); err != nil {
			return nil, fmt.Errorf("scan neighbor row: %w", err)
		}
		result[ref] = append(result[ref], n)
	}
	return result, rows.Err()
}

// SimilarityBetween returns the stored score for a pair in either input
// order, or 0 if no score is stored.
func (db *DB) SimilarityBetween(ctx context.Context, a, b int32) (float64, error) {
	lo, hi := event.CanonicalPair(a, b)

	start := time.Now()
	var score float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT score FROM event_similarity WHERE event_a = ? AND event_b = ?`,
		lo, hi).Scan(&score)
	metrics.RecordDBQuery("select", "event_similarity", start, nil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query similarity (%d, %d): %w", lo, hi, err)
	}
	return score, nil
}
