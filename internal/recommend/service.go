// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/IljiaPolstianoy/eventstats/internal/store"
)

// Store is the subset of the durable store the recommender reads.
// Satisfied by *store.DB; narrowed for testing.
type Store interface {
	InteractionWeights(ctx context.Context, userID int32) (map[int32]float64, error)
	RecentEventIDs(ctx context.Context, userID int32, limit int) ([]int32, error)
	SumWeightsForEvents(ctx context.Context, eventIDs []int32) (map[int32]float64, error)
	NeighborsOf(ctx context.Context, eventID int32) ([]store.Neighbor, error)
	NeighborsOfAny(ctx context.Context, eventIDs []int32) (map[int32][]store.Neighbor, error)
}

// Config bounds the recommendation queries.
type Config struct {
	// MaxResultsLimit caps the caller-supplied maxResults.
	MaxResultsLimit int
	// RecentInteractions is how many of the user's latest interactions seed
	// the candidate set for predictions.
	RecentInteractions int
	// Neighbors is how many of the user's interacted events contribute to
	// each candidate's predicted score.
	Neighbors int
}

// DefaultConfig returns production defaults for the recommender.
func DefaultConfig() Config {
	return Config{
		MaxResultsLimit:    100,
		RecentInteractions: 10,
		Neighbors:          5,
	}
}

// Scored is one (event, score) result row.
type Scored struct {
	EventID int32
	Score   float64
}

// Service answers the three read queries against the durable tables.
// It holds no state of its own; every request reads the store.
type Service struct {
	store Store
	cfg   Config
}

// NewService creates a recommendation service over the given store.
func NewService(st Store, cfg Config) *Service {
	if cfg.MaxResultsLimit <= 0 {
		cfg.MaxResultsLimit = DefaultConfig().MaxResultsLimit
	}
	if cfg.RecentInteractions <= 0 {
		cfg.RecentInteractions = DefaultConfig().RecentInteractions
	}
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = DefaultConfig().Neighbors
	}
	return &Service{store: st, cfg: cfg}
}

// SimilarEvents returns events similar to eventID that userID has not yet
// interacted with, best score first, at most maxResults rows.
func (s *Service) SimilarEvents(ctx context.Context, eventID, userID int32, maxResults int) ([]Scored, error) {
	maxResults = s.clampLimit(maxResults)

	neighbors, err := s.store.NeighborsOf(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load neighbors of event %d: %w", eventID, err)
	}

	interacted, err := s.store.InteractionWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}

	results := make([]Scored, 0, maxResults)
	for _, n := range neighbors {
		if _, seen := interacted[n.EventID]; seen {
			continue
		}
		results = append(results, Scored{EventID: n.EventID, Score: n.Score})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}

// RecommendationsForUser predicts scores for events the user has not
// interacted with, seeded by their most recent interactions. Users with no
// interactions receive an empty result.
func (s *Service) RecommendationsForUser(ctx context.Context, userID int32, maxResults int) ([]Scored, error) {
	maxResults = s.clampLimit(maxResults)

	recent, err := s.store.RecentEventIDs(ctx, userID, s.cfg.RecentInteractions)
	if err != nil {
		return nil, fmt.Errorf("load recent interactions of user %d: %w", userID, err)
	}
	if len(recent) == 0 {
		return nil, nil
	}

	interacted, err := s.store.InteractionWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}

	// Candidate set: union of events similar to any recent interaction,
	// minus the events already interacted with. The best similarity seen per
	// candidate serves as a cheap proxy rank before the KNN pass.
	neighborsByRef, err := s.store.NeighborsOfAny(ctx, recent)
	if err != nil {
		return nil, fmt.Errorf("load candidate neighbors: %w", err)
	}

	proxy := make(map[int32]float64)
	for _, neighbors := range neighborsByRef {
		for _, n := range neighbors {
			if _, seen := interacted[n.EventID]; seen {
				continue
			}
			if n.Score > proxy[n.EventID] {
				proxy[n.EventID] = n.Score
			}
		}
	}
	if len(proxy) == 0 {
		return nil, nil
	}

	candidates := make([]Scored, 0, len(proxy))
	for id, score := range proxy {
		candidates = append(candidates, Scored{EventID: id, Score: score})
	}
	sortScored(candidates)
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	// KNN pass: weighted average of the user's weights on the interacted
	// events most similar to each candidate.
	results := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		predicted, err := s.predict(ctx, c.EventID, interacted)
		if err != nil {
			return nil, err
		}
		results = append(results, Scored{EventID: c.EventID, Score: predicted})
	}
	sortScored(results)
	return results, nil
}

// predict computes the KNN weighted average for one candidate.
func (s *Service) predict(ctx context.Context, candidate int32, interacted map[int32]float64) (float64, error) {
	neighbors, err := s.store.NeighborsOf(ctx, candidate)
	if err != nil {
		return 0, fmt.Errorf("load neighbors of candidate %d: %w", candidate, err)
	}

	// NeighborsOf returns best score first; keep the first K that the user
	// has interacted with.
	var sumWeighted, sumSim float64
	taken := 0
	for _, n := range neighbors {
		weight, ok := interacted[n.EventID]
		if !ok || n.Score <= 0 {
			continue
		}
		sumWeighted += n.Score * weight
		sumSim += n.Score
		taken++
		if taken == s.cfg.Neighbors {
			break
		}
	}
	if sumSim == 0 {
		return 0, nil
	}
	return sumWeighted / sumSim, nil
}

// InteractionTotals returns the total accumulated weight per requested
// event, preserving request order. Unknown events report 0.
func (s *Service) InteractionTotals(ctx context.Context, eventIDs []int32) ([]Scored, error) {
	sums, err := s.store.SumWeightsForEvents(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("load interaction totals: %w", err)
	}

	results := make([]Scored, 0, len(eventIDs))
	for _, id := range eventIDs {
		results = append(results, Scored{EventID: id, Score: sums[id]})
	}
	return results, nil
}

func (s *Service) clampLimit(maxResults int) int {
	if maxResults <= 0 || maxResults > s.cfg.MaxResultsLimit {
		return s.cfg.MaxResultsLimit
	}
	return maxResults
}

// sortScored orders by score descending, event ID ascending for equal
// scores. The stable tiebreak keeps results deterministic.
func sortScored(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].EventID < items[j].EventID
	})
}
