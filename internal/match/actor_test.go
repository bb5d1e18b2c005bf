package match

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/projector"
)

// recordingBroadcaster collects every published message for assertions.
type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []recordedMsg
}

type recordedMsg struct {
	matchID ids.MatchID
	kind    string
	data    any
}

func (b *recordingBroadcaster) Publish(matchID ids.MatchID, kind string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, recordedMsg{matchID: matchID, kind: kind, data: data})
}

func (b *recordingBroadcaster) kinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.msgs))
	for i, m := range b.msgs {
		out[i] = m.kind
	}
	return out
}

func openTestStore(t *testing.T) *eventstore.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := eventstore.Open(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testXI(team model.TeamSide, captain, keeper ids.PlayerID) *model.PlayingSide {
	players := make([]model.PlayingXIEntry, 0, 11)
	players = append(players,
		model.PlayingXIEntry{PlayerID: captain, CanBat: true, CanBowl: true, IsCaptain: true},
		model.PlayingXIEntry{PlayerID: keeper, CanBat: true, IsKeeper: true},
	)
	for i := len(players); i < 11; i++ {
		players = append(players, model.PlayingXIEntry{
			PlayerID: ids.PlayerID(string(team) + "-extra-" + string(rune('a'+i))),
			CanBat:   true,
			CanBowl:  true,
		})
	}
	return &model.PlayingSide{Team: team, Players: players}
}

func newTestActorWithState(t *testing.T, policy consensus.Policy, state model.MatchState) (*Actor, *recordingBroadcaster) {
	t.Helper()
	store := openTestStore(t)
	engine := consensus.NewEngine(policy)
	held := consensus.NewHeldBuffer()
	bc := &recordingBroadcaster{}

	creator := ids.NewPlayerID()
	m := model.Match{
		ID:        ids.NewMatchID(),
		TeamAName: "Alpha",
		TeamBName: "Beta",
		Rules:     model.Test(),
		State:     state,
		CreatorID: creator,
		PlayingXI: map[model.TeamSide]*model.PlayingSide{
			model.TeamA: testXI(model.TeamA, "a-captain", "a-keeper"),
			model.TeamB: testXI(model.TeamB, "b-captain", "b-keeper"),
		},
		Officials: []model.Official{
			{PlayerID: "umpire-1", Role: model.RoleOfficial},
		},
	}

	a := NewActor(m, store, engine, held, bc)
	t.Cleanup(a.Close)
	return a, bc
}

func newTestActor(t *testing.T, policy consensus.Policy) (*Actor, *recordingBroadcaster) {
	t.Helper()
	return newTestActorWithState(t, policy, model.MatchLive)
}

func submitFromBoth(t *testing.T, a *Actor, payload model.BallPayload) consensus.Outcome {
	t.Helper()
	ctx := context.Background()
	outA, err := a.SubmitBall(ctx, "scorer-home", model.ScorerHome, payload)
	if err != nil {
		t.Fatalf("SubmitBall (home): %v", err)
	}
	if outA.Settled {
		return outA
	}
	outB, err := a.SubmitBall(ctx, "scorer-away", model.ScorerAway, payload)
	if err != nil {
		t.Fatalf("SubmitBall (away): %v", err)
	}
	return outB
}

func ballPayload(over, ball, runs int, inningsID ids.InningsID) model.BallPayload {
	return model.BallPayload{
		InningsID:  inningsID,
		Number:     model.BallNumber{Over: over, Ball: ball},
		Bowler:     "a-captain",
		Striker:    "b-captain",
		NonStriker: "b-keeper",
		RunsOffBat: runs,
		IsLegal:    true,
		ExtraKind:  model.ExtraNone,
	}
}

func TestSubmitBallSettlesOnScorerMatchAndCommits(t *testing.T) {
	a, bc := newTestActor(t, consensus.TestPolicy())
	ctx := context.Background()

	inningsID, err := a.OpenInnings(ctx, model.TeamB)
	if err != nil {
		t.Fatalf("OpenInnings: %v", err)
	}

	outcome := submitFromBoth(t, a, ballPayload(0, 1, 4, inningsID))
	if !outcome.Settled || outcome.Disputed {
		t.Fatalf("expected settled, non-disputed outcome, got %+v", outcome)
	}
	if outcome.Method != model.SourceScorerMatch {
		t.Fatalf("method = %v, want ScorerMatch", outcome.Method)
	}

	kinds := bc.kinds()
	found := false
	for _, k := range kinds {
		if k == "BallBowled" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a BallBowled broadcast, got %v", kinds)
	}
}

func TestSubmitBallDisputesOnDisagreement(t *testing.T) {
	a, bc := newTestActor(t, consensus.TestPolicy())
	ctx := context.Background()

	inningsID, err := a.OpenInnings(ctx, model.TeamB)
	if err != nil {
		t.Fatalf("OpenInnings: %v", err)
	}

	p1 := ballPayload(0, 1, 1, inningsID)
	p2 := ballPayload(0, 1, 4, inningsID)

	if _, err := a.SubmitBall(ctx, "scorer-home", model.ScorerHome, p1); err != nil {
		t.Fatalf("SubmitBall (home): %v", err)
	}
	if _, err := a.SubmitBall(ctx, "scorer-away", model.ScorerAway, p2); err != nil {
		t.Fatalf("SubmitBall (away): %v", err)
	}

	// TestPolicy's window is tiny; sweep forces the window-expiry path if the
	// disagreement wasn't already caught synchronously.
	time.Sleep(100 * time.Millisecond)
	if err := a.Sweep(ctx, time.Now()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	kinds := bc.kinds()
	found := false
	for _, k := range kinds {
		if k == "ScoringDisputeRaised" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ScoringDisputeRaised broadcast, got %v", kinds)
	}
}

func TestResolveDisputeCommitsAndBroadcastsReconciliation(t *testing.T) {
	a, bc := newTestActor(t, consensus.TestPolicy())
	ctx := context.Background()

	inningsID, err := a.OpenInnings(ctx, model.TeamB)
	if err != nil {
		t.Fatalf("OpenInnings: %v", err)
	}

	disputedBall := model.BallNumber{Over: 0, Ball: 1}
	p1 := ballPayload(0, 1, 1, inningsID)
	p2 := ballPayload(0, 1, 4, inningsID)
	if _, err := a.SubmitBall(ctx, "scorer-home", model.ScorerHome, p1); err != nil {
		t.Fatalf("SubmitBall (home): %v", err)
	}
	if _, err := a.SubmitBall(ctx, "scorer-away", model.ScorerAway, p2); err != nil {
		t.Fatalf("SubmitBall (away): %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := a.Sweep(ctx, time.Now()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	resolved := ballPayload(0, 1, 4, inningsID)
	if err := a.ResolveDispute(ctx, "umpire-1", disputedBall, resolved); err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}

	kinds := bc.kinds()
	var sawResolved, sawReconciliation bool
	for _, k := range kinds {
		if k == "DisputeResolved" {
			sawResolved = true
		}
		if k == "Reconciliation" {
			sawReconciliation = true
		}
	}
	if !sawResolved || !sawReconciliation {
		t.Fatalf("expected DisputeResolved and Reconciliation broadcasts, got %v", kinds)
	}
}

func TestConductTossRequiresCreator(t *testing.T) {
	a, _ := newTestActorWithState(t, consensus.TestPolicy(), model.MatchScheduled)
	ctx := context.Background()

	if err := a.ConductToss(ctx, ids.NewPlayerID(), model.TeamA, model.ElectedBat); err == nil {
		t.Fatal("expected error from a non-creator caller")
	}
	if err := a.ConductToss(ctx, a.match.CreatorID, model.TeamA, model.ElectedBat); err != nil {
		t.Fatalf("ConductToss: %v", err)
	}
	if a.match.State != model.MatchTossPending {
		t.Fatalf("state = %v, want TossPending", a.match.State)
	}
}

// §8 scenario 5: the chasing side wins, margin reported as wickets in hand.
func TestComputeResultChaseWinByWickets(t *testing.T) {
	a, _ := newTestActor(t, consensus.TestPolicy())

	first := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamA, TotalRuns: 180, WicketsFallen: 6})
	second := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamB, TotalRuns: 182, WicketsFallen: 4})
	a.innings[first.Innings.ID] = first
	a.innings[second.Innings.ID] = second
	a.match.InningsOrder = []ids.InningsID{first.Innings.ID, second.Innings.ID}
	a.match.Rules = model.T20()

	a.computeResultLocked()

	if a.match.Winner != model.TeamB {
		t.Fatalf("Winner = %v, want TeamB", a.match.Winner)
	}
	if want := "6 wickets"; a.match.Margin != want {
		t.Fatalf("Margin = %q, want %q", a.match.Margin, want)
	}
}

// The defending side wins by the runs it restricted the chase to.
func TestComputeResultDefendWinByRuns(t *testing.T) {
	a, _ := newTestActor(t, consensus.TestPolicy())

	first := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamA, TotalRuns: 180})
	second := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamB, TotalRuns: 150, WicketsFallen: 10})
	a.innings[first.Innings.ID] = first
	a.innings[second.Innings.ID] = second
	a.match.InningsOrder = []ids.InningsID{first.Innings.ID, second.Innings.ID}
	a.match.Rules = model.T20()

	a.computeResultLocked()

	if a.match.Winner != model.TeamA {
		t.Fatalf("Winner = %v, want TeamA", a.match.Winner)
	}
	if want := "30 runs"; a.match.Margin != want {
		t.Fatalf("Margin = %q, want %q", a.match.Margin, want)
	}
}

// Equal totals record a tie rather than naming either side the winner.
func TestComputeResultTie(t *testing.T) {
	a, _ := newTestActor(t, consensus.TestPolicy())

	first := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamA, TotalRuns: 150})
	second := projector.NewInningsSnapshot(model.Innings{ID: ids.NewInningsID(), BattingSide: model.TeamB, TotalRuns: 150, WicketsFallen: 10})
	a.innings[first.Innings.ID] = first
	a.innings[second.Innings.ID] = second
	a.match.InningsOrder = []ids.InningsID{first.Innings.ID, second.Innings.ID}
	a.match.Rules = model.T20()

	a.computeResultLocked()

	if a.match.Winner != "" {
		t.Fatalf("Winner = %v, want unset on a tie", a.match.Winner)
	}
	if want := "Match tied"; a.match.Margin != want {
		t.Fatalf("Margin = %q, want %q", a.match.Margin, want)
	}
}

func TestRegistryCreateGetRemove(t *testing.T) {
	store := openTestStore(t)
	engine := consensus.NewEngine(consensus.TestPolicy())
	held := consensus.NewHeldBuffer()
	bc := &recordingBroadcaster{}
	reg := NewRegistry(store, engine, held, bc)

	m := model.Match{ID: ids.NewMatchID(), Rules: model.Test(), State: model.MatchScheduled}
	if _, err := reg.Create(m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reg.Create(m); err == nil {
		t.Fatal("expected error creating a duplicate match")
	}
	if _, ok := reg.Get(m.ID); !ok {
		t.Fatal("expected match to be registered")
	}
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}
	reg.Remove(m.ID)
	if _, ok := reg.Get(m.ID); ok {
		t.Fatal("expected match to be removed")
	}
}
