package match

import (
	"context"
	"time"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/projector"
	"livecricket.dev/scoring/internal/rules"
)

// SubmitBall is the C7 SubmitBall command: legality check (C2) → raw append
// (C1) → consensus match (C4) → on settlement, canonical commit (C3) and
// broadcast (C6) — the flow described in the overview (§1 "Flow").
func (a *Actor) SubmitBall(ctx context.Context, scorerID ids.ScorerID, scorerSide model.ScorerSide, payload model.BallPayload) (consensus.Outcome, error) {
	var outcome consensus.Outcome
	err := a.do(ctx, func() error {
		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}

		legalitySnap := a.legalitySnapshot(snap)
		verdict := rules.LegalityCheck(payload, legalitySnap, a.match.Rules)
		if !verdict.OK {
			return apperr.FailedPrecond(verdict.Reason)
		}

		seq, hash, err := a.store.Append(eventstore.AppendInput{
			MatchID:    a.matchID,
			InningsID:  snap.Innings.ID,
			ScorerID:   scorerID,
			ScorerSide: scorerSide,
			Kind:       model.EventBallRecorded,
			Payload:    payload,
			Now:        time.Now(),
		})
		if err != nil {
			return apperr.Internalf("append event", err)
		}

		event := model.ScoringEvent{
			ID:             ids.NewEventID(),
			MatchID:        a.matchID,
			ScorerID:       scorerID,
			ScorerSide:     scorerSide,
			Kind:           model.EventBallRecorded,
			Payload:        payload,
			EventHash:      hash,
			SequenceNumber: seq,
		}

		outcome = a.consensus.Submit(a.matchID, event)
		a.handleOutcomeLocked(payload.Number, outcome)
		return nil
	})
	return outcome, err
}

// Sweep re-evaluates pending balls whose matching window may have expired,
// settling single-scorer acceptances and missing-sibling disputes. The
// process driver (cmd/scoringserver) calls this on a periodic tick per
// match, since no further Submit may ever arrive to trigger the decision
// (a scorer's feed going silent).
func (a *Actor) Sweep(ctx context.Context, now time.Time) error {
	return a.do(ctx, func() error {
		for ballNumber, outcome := range a.consensus.Sweep(a.matchID, now) {
			a.handleOutcomeLocked(ballNumber, outcome)
		}
		return nil
	})
}

// ResolveDispute closes an open dispute with an authorised resolver's final
// payload (§4.4 "Dispute resolution", §4.7: official only).
func (a *Actor) ResolveDispute(ctx context.Context, resolverID ids.PlayerID, ballNumber model.BallNumber, finalPayload model.BallPayload) error {
	return a.do(ctx, func() error {
		if entry, ok := a.match.OfficialEntry(resolverID); !ok || entry.Role != model.RoleOfficial {
			return apperr.Forbidden("only a match official may resolve a dispute")
		}
		released := a.held.Resolve(a.matchID, ballNumber, resolverID, model.SourceManualResolution, finalPayload, time.Now())

		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}

		ball := ballFromPayload(finalPayload)
		ball.ValidationSource = model.SourceManualResolution
		ball.Confidence = 1.0
		fired := a.commitBall(snap, ball)
		a.broadcastBallLocked(snap, ball, model.SourceManualResolution, fired)
		a.broadcast("DisputeResolved", map[string]any{"ballNumber": ballNumber})

		reconciled := []model.BallNumber{ballNumber}
		for _, c := range released {
			rb := ballFromPayload(c.Payload)
			rb.ValidationSource = c.Method
			rb.Confidence = c.Confidence
			f := a.commitBall(snap, rb)
			a.broadcastBallLocked(snap, rb, c.Method, f)
			reconciled = append(reconciled, c.BallNumber)
		}
		a.broadcast("Reconciliation", map[string]any{"ballsCommitted": reconciled})
		return a.checkInningsCompletionLocked(snap)
	})
}

// handleOutcomeLocked applies a settled consensus.Outcome: commit, hold, or
// dispute. Callers hold the actor goroutine.
func (a *Actor) handleOutcomeLocked(ballNumber model.BallNumber, outcome consensus.Outcome) {
	if !outcome.Settled {
		return
	}

	if outcome.Disputed {
		dispute := a.held.OpenDispute(a.matchID, ballNumber, outcome.DisputeKind, outcome.EventIDs, time.Now())
		a.broadcast("ScoringDisputeRaised", dispute)
		return
	}

	snap := a.currentInnings()
	if snap == nil {
		return
	}

	if !a.held.TryCommit(a.matchID, ballNumber) {
		a.held.Enqueue(a.matchID, consensus.QueuedCommit{
			BallNumber: ballNumber,
			Payload:    outcome.Canonical,
			EventIDs:   outcome.EventIDs,
			Method:     outcome.Method,
			Confidence: outcome.Confidence,
		})
		a.broadcast("BallBowled", map[string]any{
			"ballNumber":  ballNumber,
			"unconfirmed": true,
		})
		return
	}

	ball := ballFromPayload(outcome.Canonical)
	ball.ValidationSource = outcome.Method
	ball.Confidence = outcome.Confidence
	fired := a.commitBall(snap, ball)
	a.broadcastBallLocked(snap, ball, outcome.Method, fired)
	_ = a.checkInningsCompletionLocked(snap)
}

// commitBall folds ball into snap via the projector and records the
// bowler/over-number of the just-completed over for the next legality
// check's consecutive-bowler rule. Callers hold the actor goroutine.
func (a *Actor) commitBall(snap *projector.InningsSnapshot, ball model.Ball) []string {
	fired := projector.Apply(snap, ball, a.match.Rules)
	if n := len(snap.Overs); n > 0 {
		last := &snap.Overs[n-1]
		if last.Completed && last.OverNumber != a.lastOverNumber {
			a.lastOverBowler = last.Bowler
			a.lastOverNumber = last.OverNumber
		}
	}
	return fired
}

func (a *Actor) broadcastBallLocked(snap *projector.InningsSnapshot, ball model.Ball, method model.ValidationSource, milestones []string) {
	a.broadcast("BallBowled", map[string]any{
		"ball":        ball,
		"method":      method,
		"unconfirmed": false,
	})
	if ball.IsWicket {
		a.broadcast("WicketFallen", ball.Wicket)
	}
	for _, m := range milestones {
		a.broadcast("MilestoneAchieved", map[string]any{"milestone": m, "playerId": ball.Striker})
	}
}

func (a *Actor) checkInningsCompletionLocked(snap *projector.InningsSnapshot) error {
	if !snap.Innings.Completed {
		return nil
	}
	return a.finishInningsLocked()
}

func (a *Actor) legalitySnapshot(snap *projector.InningsSnapshot) rules.InningsSnapshot {
	out := rules.InningsSnapshot{
		BattingSide:       snap.Innings.BattingSide,
		BowlingSide:       snap.Innings.BowlingSide,
		LastOverBowler:    string(a.lastOverBowler),
		CurrentOverNumber: snap.Innings.CurrentOver,
		Completed:         snap.Innings.Completed,
	}
	if a.match.PlayingXI != nil {
		out.BattingXI = a.match.PlayingXI[snap.Innings.BattingSide]
		out.BowlingXI = a.match.PlayingXI[snap.Innings.BowlingSide]
	}
	return out
}

func ballFromPayload(p model.BallPayload) model.Ball {
	b := model.Ball{
		ID:           ids.NewBallID(),
		InningsID:    p.InningsID,
		OverID:       p.OverID,
		Number:       p.Number,
		Bowler:       p.Bowler,
		Striker:      p.Striker,
		NonStriker:   p.NonStriker,
		RunsOffBat:   p.RunsOffBat,
		IsBoundary:   p.IsBoundary,
		BoundaryKind: p.BoundaryKind,
		IsLegal:      p.IsLegal,
		ExtraKind:    p.ExtraKind,
		ExtraRuns:    p.ExtraRuns,
		IsWicket:     p.IsWicket,
		BowledAt:     time.Now(),
	}
	if p.IsWicket && p.Wicket != nil {
		bowlerCredit := p.Wicket.BowlerCredit
		if bowlerCredit == "" && model.BowlerCreditedKinds[p.Wicket.Kind] {
			bowlerCredit = p.Bowler
		}
		b.Wicket = &model.Wicket{
			ID:           ids.NewWicketID(),
			BallID:       b.ID,
			Kind:         p.Wicket.Kind,
			BatsmanOut:   p.Wicket.BatsmanOut,
			BowlerCredit: bowlerCredit,
			Fielders:     p.Wicket.Fielders,
		}
	}
	return b
}
