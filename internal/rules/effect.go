package rules

import "livecricket.dev/scoring/internal/model"

// Effect is the additive result of folding one ball into the innings
// aggregate (§4.2's effect() table).
type Effect struct {
	RunsDelta           int
	ExtrasDelta         int
	IncrementsLegalDelivery bool
	AdvancesOver        bool
	StealsStrike        bool
}

// ApplyEffect computes the scoring effect of a ball from its payload alone;
// no match rules enter into it. It does not
// mutate any state; callers (the projector) apply the deltas themselves.
func ApplyEffect(payload model.BallPayload) Effect {
	var e Effect

	switch payload.ExtraKind {
	case model.ExtraNone:
		e.RunsDelta = payload.RunsOffBat
		e.IncrementsLegalDelivery = true
	case model.ExtraWide:
		e.ExtrasDelta = 1 + payload.ExtraRuns
		e.IncrementsLegalDelivery = false
	case model.ExtraNoBall:
		e.RunsDelta = payload.RunsOffBat
		e.ExtrasDelta = 1 + payload.ExtraRuns
		e.IncrementsLegalDelivery = false
	case model.ExtraBye:
		e.ExtrasDelta = payload.RunsOffBat
		e.IncrementsLegalDelivery = true
	case model.ExtraLegBye:
		e.ExtrasDelta = payload.RunsOffBat
		e.IncrementsLegalDelivery = true
	case model.ExtraPenalty:
		e.ExtrasDelta = payload.ExtraRuns
		e.IncrementsLegalDelivery = false
	}

	e.AdvancesOver = e.IncrementsLegalDelivery

	totalRuns := e.RunsDelta + e.ExtrasDelta
	e.StealsStrike = totalRuns%2 == 1

	return e
}

// AdvancesBallInOver reports whether this delivery consumes one of the
// over's balls (Wide/NoBall do not; everything else does).
func AdvancesBallInOver(payload model.BallPayload) bool {
	return payload.ExtraKind != model.ExtraWide && payload.ExtraKind != model.ExtraNoBall
}
