// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package aggregator

import (
	"math"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
)

// epsilon is the total weight below which an event is treated as having no
// data, suppressing similarity emission to avoid division by near-zero.
const epsilonWeight = 1e-6

type pairKey struct {
	a, b int32 // canonical order, a < b
}

func newPairKey(x, y int32) pairKey {
	lo, hi := event.CanonicalPair(x, y)
	return pairKey{a: lo, b: hi}
}

// State holds the incremental similarity model: per-user max weights,
// per-event total weights and per-pair min-weight sums. It is a pure
// in-memory structure with no I/O; the Service feeds it the ordered action
// stream and publishes whatever it returns.
//
// State is not safe for concurrent use. The single stream consumer owns it.
type State struct {
	userEventWeights map[int32]map[int32]float64
	eventTotals      map[int32]float64
	minWeightSums    map[pairKey]float64
	weights          event.Weights
}

// NewState creates empty similarity state with the given action weight table.
func NewState(weights event.Weights) *State {
	return &State{
		userEventWeights: make(map[int32]map[int32]float64),
		eventTotals:      make(map[int32]float64),
		minWeightSums:    make(map[pairKey]float64),
		weights:          weights,
	}
}

// Apply processes one user action and returns the similarity records whose
// scores changed, in ascending pair order. A repeat action whose weight does
// not exceed the stored weight is a no-op returning nil, which also absorbs
// duplicate redelivery. An applied action always returns a non-nil slice,
// empty when no pair score could be emitted yet.
//
// Cost is proportional to the number of distinct events the acting user has
// touched, never to the catalog size.
func (s *State) Apply(a *event.UserAction) ([]*event.EventSimilarity, error) {
	newWeight, ok := s.weights.For(a.ActionType)
	if !ok {
		return nil, &event.ValidationError{Field: "action_type", Message: "no weight configured for " + string(a.ActionType)}
	}

	userWeights := s.userEventWeights[a.UserID]
	oldWeight := userWeights[a.EventID]
	if newWeight <= oldWeight {
		return nil, nil
	}

	if userWeights == nil {
		userWeights = make(map[int32]float64)
		s.userEventWeights[a.UserID] = userWeights
	}

	firstInteraction := oldWeight == 0
	userWeights[a.EventID] = newWeight
	s.eventTotals[a.EventID] += newWeight - oldWeight

	updates := make([]*event.EventSimilarity, 0, len(userWeights))
	for other, otherWeight := range userWeights {
		if other == a.EventID {
			continue
		}
		key := newPairKey(a.EventID, other)
		delta := math.Min(newWeight, otherWeight) - math.Min(oldWeight, otherWeight)
		s.minWeightSums[key] += delta

		score, ok := s.score(key)
		if !ok {
			continue
		}
		updates = append(updates, event.NewEventSimilarity(a.EventID, other, score, a.Timestamp))
	}

	// On a user's first touch of this event, register an empty overlap entry
	// against every known event so later pair lookups are complete.
	if firstInteraction {
		for other := range s.eventTotals {
			if other == a.EventID {
				continue
			}
			key := newPairKey(a.EventID, other)
			if _, exists := s.minWeightSums[key]; !exists {
				s.minWeightSums[key] = 0
			}
		}
	}

	sortSimilarities(updates)
	return updates, nil
}

// score computes the current similarity for a pair. The second return value
// is false when either event's total weight is below epsilon or the pair has
// no overlap yet.
func (s *State) score(key pairKey) (float64, bool) {
	sMin := s.minWeightSums[key]
	totalA := s.eventTotals[key.a]
	totalB := s.eventTotals[key.b]
	if totalA < epsilonWeight || totalB < epsilonWeight {
		return 0, false
	}
	return sMin / math.Sqrt(totalA*totalB), true
}

// Similarity returns the current score for a pair in any input order.
// The second return value is false when the score is undefined.
func (s *State) Similarity(a, b int32) (float64, bool) {
	return s.score(newPairKey(a, b))
}

// TotalWeight returns the accumulated total weight for an event.
func (s *State) TotalWeight(eventID int32) float64 {
	return s.eventTotals[eventID]
}

// UserWeight returns the stored max weight for a (user, event) pair.
func (s *State) UserWeight(userID, eventID int32) float64 {
	return s.userEventWeights[userID][eventID]
}

// TrackedEvents returns the number of events with at least one interaction.
func (s *State) TrackedEvents() int {
	return len(s.eventTotals)
}

// TrackedPairs returns the number of registered event pairs.
func (s *State) TrackedPairs() int {
	return len(s.minWeightSums)
}

func sortSimilarities(sims []*event.EventSimilarity) {
	// Insertion sort: the slice is bounded by one user's event breadth.
	for i := 1; i < len(sims); i++ {
		for j := i; j > 0 && lessPair(sims[j], sims[j-1]); j-- {
			sims[j], sims[j-1] = sims[j-1], sims[j]
		}
	}
}

func lessPair(x, y *event.EventSimilarity) bool {
	if x.EventA != y.EventA {
		return x.EventA < y.EventA
	}
	return x.EventB < y.EventB
}
