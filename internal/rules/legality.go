// Package rules implements the pure, side-effect-free cricket rule engine
// (C2, §4.2). The legality and termination checks are keyed on a
// model.MatchRules value; no function here raises an error, each returns a
// tagged result or plain value instead — callers at the API
// boundary translate rejections into apperr values (§9).
package rules

import (
	"livecricket.dev/scoring/internal/model"
)

// Verdict is the outcome of a legality check.
type Verdict struct {
	OK     bool
	Reason string
}

func Ok() Verdict              { return Verdict{OK: true} }
func Rejected(reason string) Verdict { return Verdict{OK: false, Reason: reason} }

// InningsSnapshot is the subset of innings/over state legalityCheck needs.
// The projector and match actor pass their live state in; the rule engine
// never reads a store directly.
type InningsSnapshot struct {
	BattingSide       model.TeamSide
	BowlingSide       model.TeamSide
	BattingXI         *model.PlayingSide
	BowlingXI         *model.PlayingSide
	LastOverBowler    string // player id of the bowler of the immediately preceding over, "" if none
	CurrentOverNumber int
	Completed         bool
}

// LegalityCheck validates a submitted ball against the active rules and the
// innings it targets (§4.2).
func LegalityCheck(payload model.BallPayload, snap InningsSnapshot, rules model.MatchRules) Verdict {
	if snap.Completed {
		return Rejected("innings already completed")
	}

	if payload.Striker == payload.NonStriker {
		return Rejected("striker and non-striker must be distinct")
	}

	if snap.BattingXI != nil {
		if _, ok := snap.BattingXI.Has(payload.Striker); !ok {
			return Rejected("striker is not a member of the batting side")
		}
		if _, ok := snap.BattingXI.Has(payload.NonStriker); !ok {
			return Rejected("non-striker is not a member of the batting side")
		}
	}

	if snap.BowlingXI != nil {
		entry, ok := snap.BowlingXI.Has(payload.Bowler)
		if !ok {
			return Rejected("bowler is not a member of the bowling side")
		}
		if !entry.CanBowl {
			return Rejected("player is not flagged to bowl")
		}
	}

	if !rules.AllowSameBowlerConsecutive && snap.LastOverBowler != "" &&
		snap.LastOverBowler == string(payload.Bowler) && payload.Number.Over == snap.CurrentOverNumber {
		return Rejected("bowler cannot bowl consecutive overs")
	}

	if payload.RunsOffBat < 0 || payload.ExtraRuns < 0 {
		return Rejected("runs cannot be negative")
	}

	if payload.IsWicket {
		if payload.Wicket == nil {
			return Rejected("isWicket set without wicket detail")
		}
		if model.RequiresKeeper(payload.Wicket.Kind) && snap.BowlingXI != nil {
			hasKeeper := false
			for _, p := range snap.BowlingXI.Players {
				if p.IsKeeper {
					hasKeeper = true
					break
				}
			}
			if !hasKeeper {
				return Rejected("stumped requires a registered wicketkeeper")
			}
		}
		if payload.Wicket.Kind == model.RunOut && payload.Wicket.BowlerCredit != "" {
			return Rejected("run out does not credit a bowler")
		}
	}

	switch payload.ExtraKind {
	case model.ExtraWide, model.ExtraNoBall, model.ExtraBye, model.ExtraLegBye, model.ExtraPenalty, model.ExtraNone:
		// recognized
	default:
		return Rejected("unrecognized extra kind")
	}

	return Ok()
}
