package projector

import "livecricket.dev/scoring/internal/model"

// Project folds an ordered sequence of canonical balls into a fresh
// InningsSnapshot, starting from the innings' initial state. It always
// delegates to Apply so that a from-scratch projection and the incremental
// commit path can never diverge (§4.3 "Determinism": this is the test
// anchor for §8 property 2).
func Project(initial model.Innings, balls []model.Ball, matchRules model.MatchRules) *InningsSnapshot {
	snap := NewInningsSnapshot(initial)
	for _, b := range balls {
		Apply(snap, b, matchRules)
	}
	return snap
}
