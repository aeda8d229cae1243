// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package event

import "fmt"

// Weights maps an action type to its engagement weight in (0, 1].
// The mapping is configuration data, overridable per deployment.
type Weights map[ActionType]float64

// DefaultWeights returns the standard action weight table.
func DefaultWeights() Weights {
	return Weights{
		ActionView:     0.4,
		ActionRegister: 0.8,
		ActionLike:     1.0,
	}
}

// For returns the weight for the given action type.
// The second return value is false for unmapped action types.
func (w Weights) For(t ActionType) (float64, bool) {
	weight, ok := w[t]
	return weight, ok
}

// Validate checks that all three action types are mapped, every weight is in
// (0, 1], and the intensity ordering VIEW <= REGISTER <= LIKE holds.
func (w Weights) Validate() error {
	for _, t := range []ActionType{ActionView, ActionRegister, ActionLike} {
		weight, ok := w[t]
		if !ok {
			return fmt.Errorf("action weight for %s not configured", t)
		}
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("action weight for %s out of range (0, 1]: %v", t, weight)
		}
	}
	if w[ActionView] > w[ActionRegister] || w[ActionRegister] > w[ActionLike] {
		return fmt.Errorf("action weights must be ordered VIEW <= REGISTER <= LIKE: %v", w)
	}
	return nil
}
