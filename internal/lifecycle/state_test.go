package lifecycle

import (
	"testing"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

func TestTossStartsTossPending(t *testing.T) {
	next, err := Apply(model.MatchScheduled, ConductToss)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != model.MatchTossPending {
		t.Fatalf("next = %v, want TossPending", next)
	}
}

func TestPlayingXIFromTossPendingGoesLive(t *testing.T) {
	next, err := Apply(model.MatchTossPending, SetPlayingXI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != model.MatchLive {
		t.Fatalf("next = %v, want Live", next)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	_, err := Apply(model.MatchCompleted, ConductToss)
	if err == nil {
		t.Fatal("expected error for toss on a completed match")
	}
}

func TestAbandonAllowedFromAnyNonCompletedState(t *testing.T) {
	for _, s := range []model.MatchState{model.MatchScheduled, model.MatchTossPending, model.MatchLive, model.MatchInningsBreak} {
		next, err := Apply(s, Abandon)
		if err != nil {
			t.Fatalf("Abandon from %v: unexpected error %v", s, err)
		}
		if next != model.MatchAbandoned {
			t.Fatalf("Abandon from %v: next = %v, want Abandoned", s, next)
		}
	}
	if _, err := Apply(model.MatchCompleted, Abandon); err == nil {
		t.Fatal("expected error abandoning a completed match")
	}
}

func TestValidatePlayingXIRequiresExactlyOneCaptain(t *testing.T) {
	rules := model.T20()
	players := make([]model.PlayingXIEntry, rules.PlayersPerSide)
	for i := range players {
		players[i] = model.PlayingXIEntry{PlayerID: ids.NewPlayerID(), BattingOrder: i + 1}
	}
	side := &model.PlayingSide{Team: model.TeamA, Players: players}
	if err := ValidatePlayingXI(rules, side); err == nil {
		t.Fatal("expected error: no captain")
	}
}
