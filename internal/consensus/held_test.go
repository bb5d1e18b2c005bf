package consensus

import (
	"testing"
	"time"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// §8 scenario 4: ball 5.2 is disputed; ball 5.3 commits but must be held
// until 5.2 resolves, and resolving 5.2 releases the queued 5.3.
func TestHeldBufferReleasesInOrderOnResolve(t *testing.T) {
	h := NewHeldBuffer()
	matchID := ids.NewMatchID()
	now := time.Now()

	disputedBall := model.BallNumber{Over: 5, Ball: 2}
	laterBall := model.BallNumber{Over: 5, Ball: 3}

	h.OpenDispute(matchID, disputedBall, model.RunsDiffer, nil, now)

	if h.TryCommit(matchID, laterBall) {
		t.Fatal("a commit after an open dispute must be held")
	}
	h.Enqueue(matchID, QueuedCommit{BallNumber: laterBall, Payload: model.BallPayload{RunsOffBat: 1}})

	released := h.Resolve(matchID, disputedBall, "umpire-1", model.SourceManualResolution, model.BallPayload{}, now)
	if len(released) != 1 || released[0].BallNumber != laterBall {
		t.Fatalf("expected ball 5.3 released on resolve, got %+v", released)
	}

	if h.IsHeld(matchID, laterBall) {
		t.Fatal("no dispute should remain open after resolve")
	}

	disputes := h.List(matchID)
	if len(disputes) != 1 || disputes[0].Status != model.DisputeResolved {
		t.Fatalf("expected one resolved dispute on record, got %+v", disputes)
	}
}

// A fresh ball with no open dispute ahead of it commits straight through.
func TestTryCommitPassesWhenNothingDisputed(t *testing.T) {
	h := NewHeldBuffer()
	matchID := ids.NewMatchID()

	if !h.TryCommit(matchID, model.BallNumber{Over: 1, Ball: 1}) {
		t.Fatal("expected immediate commit with no disputes open")
	}
}

// Multiple queued commits behind one dispute release together, in order,
// once that single dispute resolves.
func TestHeldBufferReleasesMultipleQueuedCommits(t *testing.T) {
	h := NewHeldBuffer()
	matchID := ids.NewMatchID()
	now := time.Now()

	disputedBall := model.BallNumber{Over: 10, Ball: 1}
	h.OpenDispute(matchID, disputedBall, model.RunsDiffer, nil, now)

	h.Enqueue(matchID, QueuedCommit{BallNumber: model.BallNumber{Over: 10, Ball: 3}})
	h.Enqueue(matchID, QueuedCommit{BallNumber: model.BallNumber{Over: 10, Ball: 2}})

	released := h.Resolve(matchID, disputedBall, "umpire-1", model.SourceManualResolution, model.BallPayload{}, now)
	if len(released) != 2 {
		t.Fatalf("expected both queued commits released, got %d", len(released))
	}
	if released[0].BallNumber.Ball != 2 || released[1].BallNumber.Ball != 3 {
		t.Fatalf("expected release in logical order, got %+v", released)
	}
}

// A dispute on a later ball must not hold back an earlier, already-settled
// commit.
func TestEarlierBallNotHeldByLaterDispute(t *testing.T) {
	h := NewHeldBuffer()
	matchID := ids.NewMatchID()

	h.OpenDispute(matchID, model.BallNumber{Over: 5, Ball: 5}, model.RunsDiffer, nil, time.Now())

	if !h.TryCommit(matchID, model.BallNumber{Over: 5, Ball: 2}) {
		t.Fatal("an earlier ball must not be held by a later dispute")
	}
}

// List returns every dispute recorded for a match, open and resolved.
func TestListReturnsOpenAndResolvedDisputes(t *testing.T) {
	h := NewHeldBuffer()
	matchID := ids.NewMatchID()
	now := time.Now()

	h.OpenDispute(matchID, model.BallNumber{Over: 1, Ball: 1}, model.RunsDiffer, nil, now)
	h.OpenDispute(matchID, model.BallNumber{Over: 1, Ball: 3}, model.WicketDiffer, nil, now)
	h.Resolve(matchID, model.BallNumber{Over: 1, Ball: 1}, "umpire-1", model.SourceManualResolution, model.BallPayload{}, now)

	disputes := h.List(matchID)
	if len(disputes) != 2 {
		t.Fatalf("expected 2 disputes, got %d", len(disputes))
	}
	if disputes[0].Status != model.DisputeResolved || disputes[1].Status != model.DisputeOpen {
		t.Fatalf("expected ball-ordered [resolved, open], got %+v", disputes)
	}
}
