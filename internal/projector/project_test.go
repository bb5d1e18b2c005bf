package projector

import (
	"testing"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

func freshInnings() model.Innings {
	return model.Innings{
		ID:          ids.NewInningsID(),
		BattingSide: model.TeamA,
		BowlingSide: model.TeamB,
		Striker:     "striker-1",
		NonStriker:  "striker-2",
	}
}

func legalBall(over, ball, runs int, bowler ids.PlayerID, striker ids.PlayerID) model.Ball {
	return model.Ball{
		Number:     model.BallNumber{Over: over, Ball: ball},
		Bowler:     bowler,
		Striker:    striker,
		RunsOffBat: runs,
		IsLegal:    true,
		ExtraKind:  model.ExtraNone,
	}
}

// Scenario 1 (§8): clean over with runs [0,1,4,0,2,1].
func TestCleanOver(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()

	runsSeq := []int{0, 1, 4, 0, 2, 1}
	var balls []model.Ball
	striker, nonStriker := ids.PlayerID("striker-1"), ids.PlayerID("striker-2")
	for i, r := range runsSeq {
		b := legalBall(1, i+1, r, "bowler-1", striker)
		balls = append(balls, b)
		if r%2 == 1 {
			striker, nonStriker = nonStriker, striker
		}
	}

	snap := Project(innings, balls, rulesSet)

	if snap.Innings.TotalRuns != 8 {
		t.Fatalf("TotalRuns = %d, want 8", snap.Innings.TotalRuns)
	}
	if snap.Innings.WicketsFallen != 0 {
		t.Fatalf("WicketsFallen = %d, want 0", snap.Innings.WicketsFallen)
	}
	if len(snap.Overs) != 1 || snap.Overs[0].LegalDeliveries != 6 {
		t.Fatalf("over not fully tracked: %+v", snap.Overs)
	}
	if snap.Overs[0].Maiden {
		t.Fatal("over with 8 runs must not be a maiden")
	}
}

// Scenario 2 (§8): six dot balls, maiden over with economy 0.
func TestMaidenOver(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()

	var balls []model.Ball
	for i := 0; i < 6; i++ {
		balls = append(balls, legalBall(1, i+1, 0, "bowler-1", "striker-1"))
	}

	snap := Project(innings, balls, rulesSet)

	if !snap.Overs[0].Maiden {
		t.Fatal("six dot balls must produce a maiden over")
	}
	eco, ok := snap.Bowlers["bowler-1"].Economy()
	if !ok || eco != 0.0 {
		t.Fatalf("economy = %v (ok=%v), want 0.0", eco, ok)
	}
}

// Scenario 3 (§8): two dot balls, then a wide at 1.3 and a wicket on the
// re-bowled delivery.
func TestWideThenWicket(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()

	wide := model.Ball{
		Number:    model.BallNumber{Over: 1, Ball: 3},
		Bowler:    "bowler-1",
		Striker:   "striker-1",
		ExtraKind: model.ExtraWide,
		ExtraRuns: 0,
	}
	wicketBall := model.Ball{
		Number:     model.BallNumber{Over: 1, Ball: 3},
		Bowler:     "bowler-1",
		Striker:    "striker-1",
		IsLegal:    true,
		ExtraKind:  model.ExtraNone,
		IsWicket:   true,
		Wicket: &model.Wicket{
			Kind:         model.Caught,
			BatsmanOut:   "striker-1",
			BowlerCredit: "bowler-1",
		},
	}

	snap := Project(innings, []model.Ball{
		legalBall(1, 1, 0, "bowler-1", "striker-1"),
		legalBall(1, 2, 0, "bowler-1", "striker-1"),
		wide, wicketBall,
	}, rulesSet)

	if snap.Innings.TotalRuns != 1 {
		t.Fatalf("TotalRuns = %d, want 1", snap.Innings.TotalRuns)
	}
	if snap.Innings.ExtrasTotal != 1 {
		t.Fatalf("ExtrasTotal = %d, want 1", snap.Innings.ExtrasTotal)
	}
	if snap.Innings.WicketsFallen != 1 {
		t.Fatalf("WicketsFallen = %d, want 1", snap.Innings.WicketsFallen)
	}
	if snap.Innings.BallInOver != 3 {
		t.Fatalf("BallInOver = %d, want 3", snap.Innings.BallInOver)
	}
}

// A committed Wicket is stamped with its sequence, the team score at the
// moment it fell, and the runs scored by the partnership it ended.
func TestWicketStampedWithScoreAndPartnershipContext(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()
	snap := NewInningsSnapshot(innings)

	Apply(snap, legalBall(1, 1, 4, "bowler-1", "striker-1"), rulesSet)
	Apply(snap, legalBall(1, 2, 2, "bowler-1", "striker-1"), rulesSet)

	firstWicket := model.Ball{
		Number:    model.BallNumber{Over: 1, Ball: 3},
		Bowler:    "bowler-1",
		Striker:   "striker-1",
		IsLegal:   true,
		ExtraKind: model.ExtraNone,
		IsWicket:  true,
		Wicket:    &model.Wicket{Kind: model.Bowled, BatsmanOut: "striker-1", BowlerCredit: "bowler-1"},
	}
	Apply(snap, firstWicket, rulesSet)

	if firstWicket.Wicket.WicketNumber != 1 {
		t.Fatalf("WicketNumber = %d, want 1", firstWicket.Wicket.WicketNumber)
	}
	if firstWicket.Wicket.TeamScoreAtWicket != 6 {
		t.Fatalf("TeamScoreAtWicket = %d, want 6", firstWicket.Wicket.TeamScoreAtWicket)
	}
	if firstWicket.Wicket.PartnershipRuns != 6 {
		t.Fatalf("PartnershipRuns = %d, want 6", firstWicket.Wicket.PartnershipRuns)
	}

	Apply(snap, legalBall(1, 4, 3, "bowler-1", "striker-2"), rulesSet)

	secondWicket := model.Ball{
		Number:    model.BallNumber{Over: 1, Ball: 5},
		Bowler:    "bowler-1",
		Striker:   "striker-2",
		IsLegal:   true,
		ExtraKind: model.ExtraNone,
		IsWicket:  true,
		Wicket:    &model.Wicket{Kind: model.Caught, BatsmanOut: "striker-2", BowlerCredit: "bowler-1"},
	}
	Apply(snap, secondWicket, rulesSet)

	if secondWicket.Wicket.WicketNumber != 2 {
		t.Fatalf("WicketNumber = %d, want 2", secondWicket.Wicket.WicketNumber)
	}
	if secondWicket.Wicket.PartnershipRuns != 3 {
		t.Fatalf("PartnershipRuns = %d, want 3 (reset after the first wicket)", secondWicket.Wicket.PartnershipRuns)
	}
	if secondWicket.Wicket.TeamScoreAtWicket != 9 {
		t.Fatalf("TeamScoreAtWicket = %d, want 9", secondWicket.Wicket.TeamScoreAtWicket)
	}
}

// §8 property 4: innings total equals sum over balls of runsOffBat+extrasCredited.
func TestTotalRunsEqualsSumOfBalls(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()

	balls := []model.Ball{
		legalBall(1, 1, 4, "bowler-1", "striker-1"),
		{Number: model.BallNumber{Over: 1, Ball: 2}, Bowler: "bowler-1", Striker: "striker-1", ExtraKind: model.ExtraWide, ExtraRuns: 1},
		legalBall(1, 2, 2, "bowler-1", "striker-1"),
	}

	snap := Project(innings, balls, rulesSet)

	want := 4 + (1 + 1) + 2
	if snap.Innings.TotalRuns != want {
		t.Fatalf("TotalRuns = %d, want %d", snap.Innings.TotalRuns, want)
	}
}

// §8 property 2 (determinism): Project from scratch must equal folding
// incrementally ball-by-ball via Apply on a running snapshot.
func TestProjectIsDeterministicWithIncrementalApply(t *testing.T) {
	rulesSet := model.T20()
	balls := []model.Ball{
		legalBall(1, 1, 1, "bowler-1", "striker-1"),
		legalBall(1, 2, 4, "bowler-1", "striker-2"),
		legalBall(1, 3, 0, "bowler-1", "striker-2"),
	}

	fromScratch := Project(freshInnings(), balls, rulesSet)

	incremental := NewInningsSnapshot(freshInnings())
	for _, b := range balls {
		Apply(incremental, b, rulesSet)
	}

	if fromScratch.Innings.TotalRuns != incremental.Innings.TotalRuns {
		t.Fatalf("TotalRuns diverged: %d vs %d", fromScratch.Innings.TotalRuns, incremental.Innings.TotalRuns)
	}
	if fromScratch.Innings.BallInOver != incremental.Innings.BallInOver {
		t.Fatalf("BallInOver diverged: %d vs %d", fromScratch.Innings.BallInOver, incremental.Innings.BallInOver)
	}
}

// §8 chase scenario: innings completes on the ball that takes totalRuns > target.
func TestChaseCompletesOnStrictExceed(t *testing.T) {
	rulesSet := model.T20()
	innings := freshInnings()
	target := 181
	innings.Target = &target
	innings.TotalRuns = 180
	innings.WicketsFallen = 6

	ball := legalBall(20, 6, 2, "bowler-1", "striker-1")
	snap := NewInningsSnapshot(innings)
	Apply(snap, ball, rulesSet)

	if snap.Innings.TotalRuns != 182 {
		t.Fatalf("TotalRuns = %d, want 182", snap.Innings.TotalRuns)
	}
	if !snap.Innings.Completed {
		t.Fatal("innings must complete once target is strictly exceeded")
	}
}
