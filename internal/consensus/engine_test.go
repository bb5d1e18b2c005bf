package consensus

import (
	"testing"
	"time"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

func ballEvent(side model.ScorerSide, over, ball, runs int) model.ScoringEvent {
	return model.ScoringEvent{
		ID:         ids.NewEventID(),
		ScorerSide: side,
		Kind:       model.EventBallRecorded,
		Payload: model.BallPayload{
			Number:     model.BallNumber{Over: over, Ball: ball},
			RunsOffBat: runs,
			ExtraKind:  model.ExtraNone,
		},
	}
}

// §8 scenario 1 / §4.4 rule 2: two opposite-side scorers agreeing settle
// immediately as ScorerMatch, no window wait required.
func TestScorerMatchSettlesImmediately(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	matchID := ids.NewMatchID()

	o1 := e.Submit(matchID, ballEvent(model.ScorerHome, 5, 2, 4))
	if o1.Settled {
		t.Fatal("first event alone must not settle")
	}

	o2 := e.Submit(matchID, ballEvent(model.ScorerAway, 5, 2, 4))
	if !o2.Settled || o2.Method != model.SourceScorerMatch {
		t.Fatalf("expected immediate ScorerMatch, got %+v", o2)
	}
	if o2.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", o2.Confidence)
	}
}

// §4.4 rule 1: an umpire-side event is authoritative over disagreeing scorers.
func TestUmpireOverrideWins(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	matchID := ids.NewMatchID()

	e.Submit(matchID, ballEvent(model.ScorerHome, 5, 2, 4))
	e.Submit(matchID, ballEvent(model.ScorerAway, 5, 2, 1))
	o := e.Submit(matchID, ballEvent(model.ScorerNeutral, 5, 2, 6))

	if !o.Settled || o.Method != model.SourceUmpireOverride {
		t.Fatalf("expected UmpireOverride, got %+v", o)
	}
	if o.Canonical.RunsOffBat != 6 {
		t.Fatalf("canonical runs = %d, want 6 (umpire's)", o.Canonical.RunsOffBat)
	}
}

// §8 scenario 4: disagreeing scorers open a dispute once the window expires.
func TestDisagreementOpensDisputeAfterWindowExpiry(t *testing.T) {
	clockTime := time.Now()
	clock := func() time.Time { return clockTime }

	e := NewEngine(Policy{WindowDuration: time.Second, WindowEvents: 100}).WithClock(clock)
	matchID := ids.NewMatchID()

	o1 := e.Submit(matchID, ballEvent(model.ScorerHome, 5, 2, 4))
	if o1.Settled {
		t.Fatal("disagreement must not settle before window expiry")
	}
	o2 := e.Submit(matchID, ballEvent(model.ScorerAway, 5, 2, 1))
	if o2.Settled {
		t.Fatal("disagreement must wait out the window before disputing")
	}

	clockTime = clockTime.Add(2 * time.Second)
	swept := e.Sweep(matchID, clockTime)

	out, ok := swept[model.BallNumber{Over: 5, Ball: 2}]
	if !ok || !out.Disputed {
		t.Fatalf("expected a swept dispute, got %+v (ok=%v)", out, ok)
	}
	if out.DisputeKind != model.RunsDiffer {
		t.Fatalf("DisputeKind = %v, want RunsDiffer", out.DisputeKind)
	}
}

// §4.4 rule 4: single-scorer fallback, only when the policy allows it.
func TestSingleScorerFallback(t *testing.T) {
	clockTime := time.Now()
	clock := func() time.Time { return clockTime }

	e := NewEngine(Policy{WindowDuration: time.Second, WindowEvents: 100, SingleScorerAllowed: true}).WithClock(clock)
	matchID := ids.NewMatchID()

	o := e.Submit(matchID, ballEvent(model.ScorerHome, 9, 1, 2))
	if o.Settled {
		t.Fatal("lone scorer must wait for the window before settling")
	}

	clockTime = clockTime.Add(2 * time.Second)
	swept := e.Sweep(matchID, clockTime)

	out, ok := swept[model.BallNumber{Over: 9, Ball: 1}]
	if !ok || out.Method != model.SourceSingleScorer {
		t.Fatalf("expected SingleScorerAccepted, got %+v (ok=%v)", out, ok)
	}
	if out.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", out.Confidence)
	}
}

// Without the single-scorer policy, a lone scorer's ball becomes a missing-
// sibling dispute rather than being silently dropped or auto-accepted.
func TestLoneScorerWithoutPolicyDisputes(t *testing.T) {
	clockTime := time.Now()
	clock := func() time.Time { return clockTime }

	e := NewEngine(Policy{WindowDuration: time.Second, WindowEvents: 100}).WithClock(clock)
	matchID := ids.NewMatchID()

	e.Submit(matchID, ballEvent(model.ScorerHome, 1, 1, 0))
	clockTime = clockTime.Add(2 * time.Second)
	swept := e.Sweep(matchID, clockTime)

	out, ok := swept[model.BallNumber{Over: 1, Ball: 1}]
	if !ok || !out.Disputed || out.DisputeKind != model.MissingEvent {
		t.Fatalf("expected MissingEvent dispute, got %+v (ok=%v)", out, ok)
	}
}

// WindowEvents can expire the window before wall-clock WindowDuration does.
func TestWindowExpiresOnEventCount(t *testing.T) {
	e := NewEngine(Policy{WindowDuration: time.Hour, WindowEvents: 2})
	matchID := ids.NewMatchID()

	e.Submit(matchID, ballEvent(model.ScorerHome, 2, 1, 4))
	o := e.Submit(matchID, ballEvent(model.ScorerAway, 2, 1, 1))
	if !o.Settled || !o.Disputed {
		t.Fatalf("two disagreeing events should exhaust WindowEvents=2 immediately, got %+v", o)
	}
}
