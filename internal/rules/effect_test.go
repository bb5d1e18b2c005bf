package rules

import (
	"testing"

	"livecricket.dev/scoring/internal/model"
)

func TestApplyEffect(t *testing.T) {
	tests := []struct {
		name        string
		payload     model.BallPayload
		wantRuns    int
		wantExtras  int
		wantLegal   bool
	}{
		{
			name:      "dot ball",
			payload:   model.BallPayload{ExtraKind: model.ExtraNone, RunsOffBat: 0},
			wantLegal: true,
		},
		{
			name:      "four off the bat",
			payload:   model.BallPayload{ExtraKind: model.ExtraNone, RunsOffBat: 4},
			wantRuns:  4,
			wantLegal: true,
		},
		{
			name:       "wide plus one overthrow",
			payload:    model.BallPayload{ExtraKind: model.ExtraWide, ExtraRuns: 1},
			wantExtras: 2,
			wantLegal:  false,
		},
		{
			name:       "no ball with two off the bat",
			payload:    model.BallPayload{ExtraKind: model.ExtraNoBall, RunsOffBat: 2},
			wantRuns:   2,
			wantExtras: 1,
			wantLegal:  false,
		},
		{
			name:       "bye of two",
			payload:    model.BallPayload{ExtraKind: model.ExtraBye, RunsOffBat: 2},
			wantExtras: 2,
			wantLegal:  true,
		},
		{
			name:       "leg bye of one",
			payload:    model.BallPayload{ExtraKind: model.ExtraLegBye, RunsOffBat: 1},
			wantExtras: 1,
			wantLegal:  true,
		},
		{
			name:       "penalty runs",
			payload:    model.BallPayload{ExtraKind: model.ExtraPenalty, ExtraRuns: 5},
			wantExtras: 5,
			wantLegal:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ApplyEffect(tt.payload)
			if e.RunsDelta != tt.wantRuns {
				t.Errorf("RunsDelta = %d, want %d", e.RunsDelta, tt.wantRuns)
			}
			if e.ExtrasDelta != tt.wantExtras {
				t.Errorf("ExtrasDelta = %d, want %d", e.ExtrasDelta, tt.wantExtras)
			}
			if e.IncrementsLegalDelivery != tt.wantLegal {
				t.Errorf("IncrementsLegalDelivery = %v, want %v", e.IncrementsLegalDelivery, tt.wantLegal)
			}
		})
	}
}

func TestAdvancesBallInOver(t *testing.T) {
	if AdvancesBallInOver(model.BallPayload{ExtraKind: model.ExtraWide}) {
		t.Error("wide should not advance ball-in-over")
	}
	if AdvancesBallInOver(model.BallPayload{ExtraKind: model.ExtraNoBall}) {
		t.Error("no ball should not advance ball-in-over")
	}
	if !AdvancesBallInOver(model.BallPayload{ExtraKind: model.ExtraBye}) {
		t.Error("bye should advance ball-in-over")
	}
	if !AdvancesBallInOver(model.BallPayload{ExtraKind: model.ExtraLegBye}) {
		t.Error("leg bye should advance ball-in-over")
	}
	if !AdvancesBallInOver(model.BallPayload{ExtraKind: model.ExtraNone}) {
		t.Error("legal delivery should advance ball-in-over")
	}
}

func TestStrikeRotation(t *testing.T) {
	if !StrikeRotation(1, false) {
		t.Error("odd runs should swap strike")
	}
	if StrikeRotation(2, false) {
		t.Error("even runs should not swap strike")
	}
	if StrikeRotation(0, true) != true {
		t.Error("end of over with even runs should swap strike")
	}
	if StrikeRotation(1, true) != false {
		t.Error("end of over with odd runs should cancel the swap")
	}
}

func TestInningsTerminatesOnTenthWicket(t *testing.T) {
	r := model.T20()
	state := TerminationState{Wickets: 10, LegalDeliveries: 40, TotalRuns: 120}
	if !InningsTerminates(state, r) {
		t.Fatal("innings with all wickets down must terminate")
	}
}

func TestInningsTerminatesOnOversExhausted(t *testing.T) {
	r := model.T20()
	state := TerminationState{Wickets: 3, LegalDeliveries: 120, TotalRuns: 160}
	if !InningsTerminates(state, r) {
		t.Fatal("innings at the legal ball cap must terminate")
	}
}

func TestInningsTerminatesOnChaseSuccess(t *testing.T) {
	r := model.T20()
	target := 181
	state := TerminationState{Wickets: 6, LegalDeliveries: 119, TotalRuns: 182, Target: &target}
	if !InningsTerminates(state, r) {
		t.Fatal("innings strictly exceeding the target must terminate")
	}
	stateShort := TerminationState{Wickets: 6, LegalDeliveries: 119, TotalRuns: 181, Target: &target}
	if InningsTerminates(stateShort, r) {
		t.Fatal("innings merely equal to the target must not terminate (must strictly exceed)")
	}
}

func TestHatTrick(t *testing.T) {
	var h HatTrickTracker
	if h.RecordLegalDelivery("bowlerA", true) {
		t.Fatal("one wicket is not a hat-trick")
	}
	if h.RecordLegalDelivery("bowlerA", true) {
		t.Fatal("two wickets is not a hat-trick")
	}
	if !h.RecordLegalDelivery("bowlerA", true) {
		t.Fatal("three consecutive wickets by the same bowler must be a hat-trick")
	}
}

func TestHatTrickBrokenByDifferentBowler(t *testing.T) {
	var h HatTrickTracker
	h.RecordLegalDelivery("bowlerA", true)
	h.RecordLegalDelivery("bowlerA", true)
	if h.RecordLegalDelivery("bowlerB", true) {
		t.Fatal("a different bowler must reset the streak")
	}
}
