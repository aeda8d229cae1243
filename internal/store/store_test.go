// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package store

import (
	"context"
	"testing"
	"time"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func TestUpsertMaxWeightMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// VIEW, then LIKE, then REGISTER: weight must end at the LIKE maximum.
	steps := []struct {
		action event.ActionType
		weight float64
		ts     time.Time
	}{
		{event.ActionView, 0.4, base},
		{event.ActionLike, 1.0, base.Add(time.Minute)},
		{event.ActionRegister, 0.8, base.Add(2 * time.Minute)},
	}
	for _, s := range steps {
		if err := db.UpsertMaxWeight(ctx, 1, 100, s.action, s.weight, s.ts); err != nil {
			t.Fatalf("UpsertMaxWeight(%v) error = %v", s.weight, err)
		}
	}

	weights, err := db.InteractionWeights(ctx, 1)
	if err != nil {
		t.Fatalf("InteractionWeights() error = %v", err)
	}
	if got := weights[100]; got != 1.0 {
		t.Errorf("weight = %v, want 1.0 (monotonic max)", got)
	}
}

func TestUpsertMaxWeightEqualRefreshesTimestamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := db.UpsertMaxWeight(ctx, 1, 100, event.ActionLike, 1.0, base); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMaxWeight(ctx, 1, 200, event.ActionLike, 1.0, base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	// Repeat LIKE on event 100 later: weight unchanged, recency updated.
	if err := db.UpsertMaxWeight(ctx, 1, 100, event.ActionLike, 1.0, base.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}

	recent, err := db.RecentEventIDs(ctx, 1, 10)
	if err != nil {
		t.Fatalf("RecentEventIDs() error = %v", err)
	}
	if len(recent) != 2 || recent[0] != 100 {
		t.Errorf("RecentEventIDs() = %v, want [100 200]", recent)
	}
}

func TestUpsertMaxWeightIdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// At-least-once delivery: applying the same record twice must match
	// applying it once.
	for i := 0; i < 2; i++ {
		if err := db.UpsertMaxWeight(ctx, 7, 42, event.ActionRegister, 0.8, ts); err != nil {
			t.Fatal(err)
		}
	}

	weights, err := db.InteractionWeights(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(weights) != 1 || weights[42] != 0.8 {
		t.Errorf("weights = %v, want map[42:0.8]", weights)
	}
}

func TestRecentEventIDsLimitAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := int32(1); i <= 5; i++ {
		if err := db.UpsertMaxWeight(ctx, 1, i, event.ActionView, 0.4, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := db.RecentEventIDs(ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{5, 4, 3}
	if len(recent) != len(want) {
		t.Fatalf("RecentEventIDs() = %v, want %v", recent, want)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Errorf("RecentEventIDs()[%d] = %d, want %d", i, recent[i], want[i])
		}
	}
}

func TestSumWeightsForEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Event 100: users 1 and 2. Event 200: user 1 only. Event 300: nobody.
	if err := db.UpsertMaxWeight(ctx, 1, 100, event.ActionLike, 1.0, ts); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMaxWeight(ctx, 2, 100, event.ActionView, 0.4, ts); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertMaxWeight(ctx, 1, 200, event.ActionRegister, 0.8, ts); err != nil {
		t.Fatal(err)
	}

	sums, err := db.SumWeightsForEvents(ctx, []int32{100, 200, 300})
	if err != nil {
		t.Fatalf("SumWeightsForEvents() error = %v", err)
	}

	tests := []struct {
		eventID int32
		want    float64
	}{
		{100, 1.4},
		{200, 0.8},
		{300, 0},
	}
	for _, tt := range tests {
		if got := sums[tt.eventID]; !almostEqual(got, tt.want) {
			t.Errorf("sum for event %d = %v, want %v", tt.eventID, got, tt.want)
		}
	}
}

func TestUpsertSimilarityLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := event.NewEventSimilarity(10, 20, 0.5, base)
	if err := db.UpsertSimilarity(ctx, first); err != nil {
		t.Fatalf("UpsertSimilarity() error = %v", err)
	}
	second := event.NewEventSimilarity(20, 10, 0.75, base.Add(time.Minute))
	if err := db.UpsertSimilarity(ctx, second); err != nil {
		t.Fatalf("UpsertSimilarity() second error = %v", err)
	}

	score, err := db.SimilarityBetween(ctx, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.75 {
		t.Errorf("SimilarityBetween() = %v, want 0.75", score)
	}

	// Same pair queried in the other input order.
	score, err = db.SimilarityBetween(ctx, 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.75 {
		t.Errorf("SimilarityBetween(reversed) = %v, want 0.75", score)
	}
}

func TestSimilarityBetweenUnknownPair(t *testing.T) {
	db := newTestDB(t)

	score, err := db.SimilarityBetween(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("SimilarityBetween() error = %v", err)
	}
	if score != 0 {
		t.Errorf("SimilarityBetween() = %v, want 0 for unknown pair", score)
	}
}

func TestNeighborsOfBothSides(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Event 20 appears as event_b of (10, 20) and event_a of (20, 30).
	pairs := []*event.EventSimilarity{
		event.NewEventSimilarity(10, 20, 0.9, ts),
		event.NewEventSimilarity(20, 30, 0.3, ts),
		event.NewEventSimilarity(10, 30, 0.5, ts),
	}
	for _, p := range pairs {
		if err := db.UpsertSimilarity(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	neighbors, err := db.NeighborsOf(ctx, 20)
	if err != nil {
		t.Fatalf("NeighborsOf() error = %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("NeighborsOf() returned %d rows, want 2", len(neighbors))
	}
	if neighbors[0].EventID != 10 || neighbors[0].Score != 0.9 {
		t.Errorf("neighbors[0] = %+v, want event 10 score 0.9", neighbors[0])
	}
	if neighbors[1].EventID != 30 || neighbors[1].Score != 0.3 {
		t.Errorf("neighbors[1] = %+v, want event 30 score 0.3", neighbors[1])
	}
}

func TestNeighborsOfAny(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	pairs := []*event.EventSimilarity{
		event.NewEventSimilarity(10, 20, 0.9, ts),
		event.NewEventSimilarity(10, 30, 0.5, ts),
		event.NewEventSimilarity(40, 50, 0.7, ts),
	}
	for _, p := range pairs {
		if err := db.UpsertSimilarity(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	result, err := db.NeighborsOfAny(ctx, []int32{10, 20})
	if err != nil {
		t.Fatalf("NeighborsOfAny() error = %v", err)
	}
	if len(result[10]) != 2 {
		t.Errorf("neighbors of 10 = %v, want 2 entries", result[10])
	}
	if len(result[20]) != 1 || result[20][0].EventID != 10 {
		t.Errorf("neighbors of 20 = %v, want [event 10]", result[20])
	}
	if _, ok := result[40]; ok {
		t.Error("returned neighbors for event 40 that was not requested")
	}
}

func TestSeedActionWeightsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedActionWeights(ctx, event.DefaultWeights()); err != nil {
		t.Fatalf("SeedActionWeights() error = %v", err)
	}
	// Re-seeding with changed values must overwrite, not duplicate.
	updated := event.Weights{
		event.ActionView:     0.5,
		event.ActionRegister: 0.8,
		event.ActionLike:     1.0,
	}
	if err := db.SeedActionWeights(ctx, updated); err != nil {
		t.Fatalf("SeedActionWeights() re-seed error = %v", err)
	}

	got, err := db.ActionWeights(ctx)
	if err != nil {
		t.Fatalf("ActionWeights() error = %v", err)
	}
	if len(got) != len(updated) {
		t.Fatalf("ActionWeights() returned %d rows, want %d", len(got), len(updated))
	}
	for action, want := range updated {
		if !almostEqual(got[action], want) {
			t.Errorf("weight for %s = %v, want %v", action, got[action], want)
		}
	}
}

func TestSchemaIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.initSchema(context.Background()); err != nil {
		t.Fatalf("re-running initSchema failed: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
