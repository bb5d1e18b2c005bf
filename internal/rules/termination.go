package rules

import "livecricket.dev/scoring/internal/model"

// TerminationState is the subset of innings state InningsTerminates needs.
type TerminationState struct {
	Wickets         int
	LegalDeliveries int
	TotalRuns       int
	Target          *int
	Declared        bool
}

// InningsTerminates reports whether the innings ends under state/rules
// (§4.2): all out, overs exhausted, target strictly exceeded, or declared.
func InningsTerminates(state TerminationState, rules model.MatchRules) bool {
	if state.Declared {
		return true
	}
	if rules.WicketsToFall > 0 && state.Wickets >= rules.WicketsToFall {
		return true
	}
	if rules.LegalBallsPerInnings() > 0 && state.LegalDeliveries >= rules.LegalBallsPerInnings() {
		return true
	}
	if state.Target != nil && state.TotalRuns > *state.Target {
		return true
	}
	return false
}
