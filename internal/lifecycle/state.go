// Package lifecycle implements C5's match state machine (§4.5): the DAG
// governing Scheduled/TossPending/Live/InningsBreak/Completed/Abandoned and
// the preconditions for toss recording and playing-XI registration.
package lifecycle

import (
	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/model"
)

// Transition is one of the named edges in the §4.5 DAG.
type Transition string

const (
	SetPlayingXI      Transition = "SetPlayingXI"
	ConductToss       Transition = "ConductToss"
	InningsTerminates Transition = "InningsTerminates"
	OpenNextInnings   Transition = "OpenNextInnings"
	AllInningsPlayed  Transition = "AllInningsPlayed"
	Abandon           Transition = "Abandon"
)

// Apply validates transition t from current and returns the resulting
// state, or a FailedPrecondition error naming the illegal edge.
func Apply(current model.MatchState, t Transition) (model.MatchState, error) {
	switch t {
	case SetPlayingXI:
		switch current {
		case model.MatchScheduled:
			return model.MatchScheduled, nil
		case model.MatchTossPending:
			return model.MatchLive, nil
		}
	case ConductToss:
		switch current {
		case model.MatchScheduled, model.MatchTossPending:
			return model.MatchTossPending, nil
		}
	case InningsTerminates:
		if current == model.MatchLive {
			return model.MatchInningsBreak, nil
		}
	case OpenNextInnings:
		if current == model.MatchInningsBreak {
			return model.MatchLive, nil
		}
	case AllInningsPlayed:
		switch current {
		case model.MatchLive, model.MatchInningsBreak:
			return model.MatchCompleted, nil
		}
	case Abandon:
		if current != model.MatchCompleted {
			return model.MatchAbandoned, nil
		}
	}
	return current, apperr.FailedPrecond("illegal transition").
		WithDetail("from", string(current)).
		WithDetail("transition", string(t))
}

// ValidateToss checks the §4.5 toss-recording preconditions that Apply
// itself does not encode (tossWinner/elected enum membership).
func ValidateToss(winner model.TeamSide, elected model.Elected) error {
	if winner != model.TeamA && winner != model.TeamB {
		return apperr.InvalidArg("tossWinner", "must be TeamA or TeamB")
	}
	if elected != model.ElectedBat && elected != model.ElectedBowl {
		return apperr.InvalidArg("elected", "must be Bat or Bowl")
	}
	return nil
}

// ValidatePlayingXI checks the §4.5 playing-XI preconditions: exactly
// rules.PlayersPerSide distinct active members, exactly one captain, and
// (if required) exactly one keeper.
func ValidatePlayingXI(rules model.MatchRules, side *model.PlayingSide) error {
	if len(side.Players) != rules.PlayersPerSide {
		return apperr.FailedPrecond("playing XI must have exactly playersPerSide members").
			WithDetail("want", rules.PlayersPerSide).
			WithDetail("got", len(side.Players))
	}

	seen := make(map[string]bool, len(side.Players))
	captains, keepers := 0, 0
	for _, p := range side.Players {
		id := p.PlayerID.String()
		if seen[id] {
			return apperr.FailedPrecond("duplicate player in playing XI").WithDetail("playerId", id)
		}
		seen[id] = true
		if p.IsCaptain {
			captains++
		}
		if p.IsKeeper {
			keepers++
		}
	}
	if captains != 1 {
		return apperr.FailedPrecond("playing XI must have exactly one captain").WithDetail("got", captains)
	}
	if rules.RequireKeeper && keepers != 1 {
		return apperr.FailedPrecond("playing XI must have exactly one keeper").WithDetail("got", keepers)
	}
	return nil
}

// FrozenOnceLive reports whether state forbids further rules/playing-XI
// mutation (§3 "rules frozen once state = Live").
func FrozenOnceLive(state model.MatchState) bool {
	return state != model.MatchScheduled && state != model.MatchTossPending
}
