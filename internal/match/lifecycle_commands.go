package match

import (
	"context"
	"fmt"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/lifecycle"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/projector"
)

// ConductToss records the toss outcome (§4.5, §4.7: only the match creator
// may call this).
func (a *Actor) ConductToss(ctx context.Context, callerID ids.PlayerID, winner model.TeamSide, elected model.Elected) error {
	return a.do(ctx, func() error {
		if callerID != a.match.CreatorID {
			return apperr.Forbidden("only the match creator may conduct the toss")
		}
		if err := lifecycle.ValidateToss(winner, elected); err != nil {
			return err
		}
		next, err := lifecycle.Apply(a.match.State, lifecycle.ConductToss)
		if err != nil {
			return err
		}
		a.match.Toss = &model.TossOutcome{WonBy: winner, Elected: elected}
		a.match.State = next
		a.broadcast("MatchStateChanged", a.match)
		return nil
	})
}

// SetPlayingXI registers one side's XI (§4.5, §4.7: captain or creator).
func (a *Actor) SetPlayingXI(ctx context.Context, callerID ids.PlayerID, side *model.PlayingSide) error {
	return a.do(ctx, func() error {
		if lifecycle.FrozenOnceLive(a.match.State) {
			return apperr.FailedPrecond("rules and playing XI are frozen once the match is live")
		}
		captainID, _ := side.CaptainID()
		if callerID != a.match.CreatorID && callerID != captainID {
			return apperr.Forbidden("only the team captain or match creator may set the playing XI")
		}
		if err := lifecycle.ValidatePlayingXI(a.match.Rules, side); err != nil {
			return err
		}

		if a.match.PlayingXI == nil {
			a.match.PlayingXI = make(map[model.TeamSide]*model.PlayingSide)
		}
		a.match.PlayingXI[side.Team] = side

		if len(a.match.PlayingXI) == 2 {
			next, err := lifecycle.Apply(a.match.State, lifecycle.SetPlayingXI)
			if err != nil {
				return err
			}
			a.match.State = next
		}
		a.broadcast("MatchStateChanged", a.match)
		return nil
	})
}

// OpenInnings starts a new innings for battingSide (§4.7 command OpenInnings).
func (a *Actor) OpenInnings(ctx context.Context, battingSide model.TeamSide) (ids.InningsID, error) {
	var inningsID ids.InningsID
	err := a.do(ctx, func() error {
		if a.match.State == model.MatchInningsBreak {
			next, err := lifecycle.Apply(a.match.State, lifecycle.OpenNextInnings)
			if err != nil {
				return err
			}
			a.match.State = next
		}
		if a.match.State != model.MatchLive {
			return apperr.FailedPrecond("innings can only be opened while the match is live or at an innings break")
		}

		var target *int
		if len(a.match.InningsOrder) > 0 {
			prev := a.innings[a.match.InningsOrder[len(a.match.InningsOrder)-1]]
			if prev != nil {
				t := prev.Innings.TotalRuns + 1
				target = &t
			}
		}

		inningsID = ids.NewInningsID()
		innings := model.Innings{
			ID:            inningsID,
			MatchID:       a.matchID,
			InningsNumber: len(a.match.InningsOrder) + 1,
			BattingSide:   battingSide,
			BowlingSide:   model.OppositeSide(battingSide),
			Target:        target,
		}
		a.innings[inningsID] = projector.NewInningsSnapshot(innings)
		a.match.InningsOrder = append(a.match.InningsOrder, inningsID)
		a.currentInningsID = inningsID
		a.lastOverBowler = ""
		a.lastOverNumber = -1

		a.broadcast("PlayerChanged", innings)
		return nil
	})
	return inningsID, err
}

// SetBatsmen nominates the striker and non-striker for the current innings.
func (a *Actor) SetBatsmen(ctx context.Context, striker, nonStriker ids.PlayerID) error {
	return a.do(ctx, func() error {
		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}
		if striker == nonStriker {
			return apperr.InvalidArg("striker/nonStriker", "must be distinct")
		}
		snap.Innings.Striker = striker
		snap.Innings.NonStriker = nonStriker
		a.broadcast("PlayerChanged", snap.Innings)
		return nil
	})
}

// SetBowler nominates the current bowler for the current innings.
func (a *Actor) SetBowler(ctx context.Context, bowler ids.PlayerID) error {
	return a.do(ctx, func() error {
		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}
		if !a.match.Rules.AllowSameBowlerConsecutive && bowler == a.lastOverBowler && snap.Innings.CurrentOver == a.lastOverNumber {
			return apperr.FailedPrecond("bowler cannot bowl consecutive overs")
		}
		snap.Innings.CurrentBowler = bowler
		a.broadcast("PlayerChanged", snap.Innings)
		return nil
	})
}

// CreateOver opens overNumber against bowler for the current innings, ahead
// of any ball being submitted against it (§4.7 command CreateOver).
func (a *Actor) CreateOver(ctx context.Context, overNumber int, bowler ids.PlayerID) (ids.OverID, error) {
	var overID ids.OverID
	err := a.do(ctx, func() error {
		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}
		if !a.match.Rules.AllowSameBowlerConsecutive && bowler == a.lastOverBowler && overNumber-1 == a.lastOverNumber {
			return apperr.FailedPrecond("bowler cannot bowl consecutive overs")
		}
		over := snap.EnsureOver(overNumber, bowler)
		overID = over.ID
		a.broadcast("OverStarted", *over)
		return nil
	})
	return overID, err
}

// CloseInnings declares the current innings closed (captain/official
// decision, independent of the automatic termination check in projector.Apply).
func (a *Actor) CloseInnings(ctx context.Context) error {
	return a.do(ctx, func() error {
		snap := a.currentInnings()
		if snap == nil {
			return apperr.FailedPrecond("no open innings")
		}
		snap.Innings.Declared = true
		snap.Innings.Completed = true
		return a.finishInningsLocked()
	})
}

// finishInningsLocked runs the §4.5 InningsTerminates/AllInningsPlayed
// transitions once an innings completes. Callers hold the actor goroutine.
func (a *Actor) finishInningsLocked() error {
	next, err := lifecycle.Apply(a.match.State, lifecycle.InningsTerminates)
	if err != nil {
		return err
	}
	a.match.State = next
	a.broadcast("InningsComplete", a.currentInnings().Innings)

	if len(a.match.InningsOrder) >= 2 {
		done, err := lifecycle.Apply(a.match.State, lifecycle.AllInningsPlayed)
		if err == nil {
			a.match.State = done
			a.computeResultLocked()
			a.broadcast("MatchComplete", a.match)
		}
	}
	return nil
}

// computeResultLocked sets Winner/Margin on a two-innings chase once the
// match completes (§8 scenario 5: "winner = chasing side, margin reported
// as wickets in hand"). Callers hold the actor goroutine and have already
// confirmed both innings have been played.
func (a *Actor) computeResultLocked() {
	first := a.innings[a.match.InningsOrder[0]]
	second := a.innings[a.match.InningsOrder[1]]
	if first == nil || second == nil {
		return
	}

	firstRuns := first.Innings.TotalRuns
	secondRuns := second.Innings.TotalRuns

	switch {
	case secondRuns > firstRuns:
		wicketsInHand := a.match.Rules.WicketsToFall - second.Innings.WicketsFallen
		a.match.Winner = second.Innings.BattingSide
		a.match.Margin = fmt.Sprintf("%d wickets", wicketsInHand)
	case firstRuns > secondRuns:
		a.match.Winner = first.Innings.BattingSide
		a.match.Margin = fmt.Sprintf("%d runs", firstRuns-secondRuns)
	default:
		a.match.Margin = "Match tied"
	}
}
