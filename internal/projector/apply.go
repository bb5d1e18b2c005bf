package projector

import (
	"fmt"

	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/rules"
)

// Apply folds one canonical ball into snap, mutating it in place and
// returning the list of fired milestones for the hub to announce. It is
// the incremental step used on commit (§4.3); Project (project.go) calls it
// in a loop over a full ball sequence and must reach the same result.
func Apply(snap *InningsSnapshot, ball model.Ball, matchRules model.MatchRules) []string {
	var fired []string

	snap.Balls = append(snap.Balls, ball)

	effect := rules.ApplyEffect(payloadOf(ball))

	snap.Innings.TotalRuns += effect.RunsDelta + effect.ExtrasDelta
	snap.Innings.ExtrasTotal += effect.ExtrasDelta
	snap.partnershipRuns += effect.RunsDelta + effect.ExtrasDelta

	over := snap.currentOver(ball.Number.Over, ball.Bowler)
	over.RunsConceded += effect.RunsDelta + creditedExtras(ball)
	over.ExtrasInOver += effect.ExtrasDelta
	over.BallSymbols = append(over.BallSymbols, ballSymbol(ball))

	bowlerAgg := snap.bowler(ball.Bowler)
	bowlerAgg.RunsConceded += effect.RunsDelta + creditedExtras(ball)

	striker := snap.batsman(ball.Striker)
	beforeRuns := striker.Runs

	if ball.ExtraKind == model.ExtraNone || ball.ExtraKind == model.ExtraNoBall {
		striker.Runs += ball.RunsOffBat
		if ball.IsBoundary {
			switch ball.BoundaryKind {
			case model.BoundaryFour:
				striker.Fours++
			case model.BoundarySix:
				striker.Sixes++
			}
		}
	}

	if effect.IncrementsLegalDelivery {
		striker.Balls++
		bowlerAgg.LegalBalls++
		over.LegalDeliveries++
		snap.Innings.BallInOver++
		if snap.Innings.BallInOver >= matchRules.BallsPerOver {
			snap.Innings.BallInOver = 0
			snap.Innings.CurrentOver++
		}
	}

	m := rulesMilestonesBatsman(beforeRuns, striker.Runs)
	fired = append(fired, m...)

	wicketFell := false
	if ball.IsWicket && ball.Wicket != nil {
		wicketFell = true
		snap.Innings.WicketsFallen++
		over.WicketsTaken++
		striker.Out = true

		if ball.Wicket.BowlerCredit != "" {
			beforeWk := bowlerAgg.Wickets
			bowlerAgg.Wickets++
			bm := rules.BowlerCrossed(beforeWk, bowlerAgg.Wickets)
			if bm.FiveWicketHaul {
				fired = append(fired, "FiveWicketHaul")
			}
		}

		fow := model.FallOfWicket{
			WicketNumber: snap.Innings.WicketsFallen,
			BatsmanOut:   ball.Wicket.BatsmanOut,
			TeamScore:    snap.Innings.TotalRuns,
			OverBall:     fmt.Sprintf("%d.%d", ball.Number.Over, ball.Number.Ball),
		}
		snap.FallOfWickets = append(snap.FallOfWickets, fow)
		snap.Innings.FallOfWickets = snap.FallOfWickets

		ball.Wicket.WicketNumber = snap.Innings.WicketsFallen
		ball.Wicket.TeamScoreAtWicket = snap.Innings.TotalRuns
		ball.Wicket.PartnershipRuns = snap.partnershipRuns
		snap.partnershipRuns = 0
	}

	endOfOver := effect.IncrementsLegalDelivery && over.LegalDeliveries >= matchRules.BallsPerOver
	if endOfOver {
		over.Completed = true
		// §9 open question: maiden is decided only at over completion,
		// never inferred from a mid-over zero-run state.
		over.Maiden = over.RunsConceded == 0
	}

	swap := rules.StrikeRotation(effect.RunsDelta+effect.ExtrasDelta, endOfOver)
	if wicketFell && endOfOver {
		// The incoming batsman's strike assignment is a scorer decision
		// (who is nominated as striker on the next ball); here we only
		// decide whether an end-of-over swap still applies once the new
		// pair is in.
		swap = rules.StrikeRotationAfterWicket(ball.Striker == snap.Innings.Striker)
	}
	if swap {
		snap.Innings.Striker, snap.Innings.NonStriker = snap.Innings.NonStriker, snap.Innings.Striker
	}

	if rules.InningsTerminates(rules.TerminationState{
		Wickets:         snap.Innings.WicketsFallen,
		LegalDeliveries: totalLegalDeliveries(snap),
		TotalRuns:       snap.Innings.TotalRuns,
		Target:          snap.Innings.Target,
		Declared:        snap.Innings.Declared,
	}, matchRules) {
		snap.Innings.Completed = true
		if matchRules.WicketsToFall > 0 && snap.Innings.WicketsFallen >= matchRules.WicketsToFall {
			snap.Innings.AllOut = true
		}
	}

	return fired
}

func totalLegalDeliveries(snap *InningsSnapshot) int {
	total := 0
	for _, o := range snap.Overs {
		total += o.LegalDeliveries
	}
	return total
}

// creditedExtras returns the extras that count against the bowler's figures
// (byes, leg-byes and penalty runs do not; wides and no-balls do, including
// their one-run extra).
func creditedExtras(ball model.Ball) int {
	switch ball.ExtraKind {
	case model.ExtraBye, model.ExtraLegBye, model.ExtraPenalty:
		return 0
	case model.ExtraWide, model.ExtraNoBall:
		return ball.ExtraRuns + 1
	default:
		return 0
	}
}

func ballSymbol(ball model.Ball) string {
	if ball.IsWicket {
		return "W"
	}
	switch ball.ExtraKind {
	case model.ExtraWide:
		return "wd"
	case model.ExtraNoBall:
		return "nb"
	case model.ExtraBye:
		return fmt.Sprintf("%db", ball.RunsOffBat)
	case model.ExtraLegBye:
		return fmt.Sprintf("%dlb", ball.RunsOffBat)
	default:
		return fmt.Sprintf("%d", ball.RunsOffBat)
	}
}

func rulesMilestonesBatsman(before, after int) []string {
	m := rules.BatsmanCrossed(before, after)
	var out []string
	if m.Fifty {
		out = append(out, "Fifty")
	}
	if m.Hundred {
		out = append(out, "Hundred")
	}
	if m.OneFifty {
		out = append(out, "OneFifty")
	}
	if m.Double {
		out = append(out, "Double")
	}
	return out
}

func payloadOf(ball model.Ball) model.BallPayload {
	return model.BallPayload{
		RunsOffBat: ball.RunsOffBat,
		ExtraKind:  ball.ExtraKind,
		ExtraRuns:  ball.ExtraRuns,
	}
}
