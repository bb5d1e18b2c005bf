package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAllocatesDenseSequence(t *testing.T) {
	s := openTestStore(t)
	matchID := ids.NewMatchID()

	for i := 0; i < 5; i++ {
		seq, _, err := s.Append(AppendInput{
			MatchID:    matchID,
			ScorerID:   "scorer-a",
			ScorerSide: model.ScorerHome,
			Kind:       model.EventBallRecorded,
			Payload:    model.BallPayload{RunsOffBat: i},
			Now:        time.Now(),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if seq != int64(i+1) {
			t.Fatalf("Append #%d: seq = %d, want %d", i, seq, i+1)
		}
	}
}

func TestAppendChainsPriorHash(t *testing.T) {
	s := openTestStore(t)
	matchID := ids.NewMatchID()

	_, firstHash, err := s.Append(AppendInput{
		MatchID: matchID, ScorerID: "scorer-a", ScorerSide: model.ScorerHome,
		Kind: model.EventBallRecorded, Payload: model.BallPayload{RunsOffBat: 1}, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := s.ReadRange(matchID, 1, -1)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if events[0].PriorHash != model.SentinelPriorHash {
		t.Fatalf("first event priorHash = %s, want sentinel", events[0].PriorHash)
	}

	_, _, err = s.Append(AppendInput{
		MatchID: matchID, ScorerID: "scorer-b", ScorerSide: model.ScorerAway,
		Kind: model.EventBallRecorded, Payload: model.BallPayload{RunsOffBat: 2}, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err = s.ReadRange(matchID, 1, -1)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if events[1].PriorHash != firstHash {
		t.Fatalf("second event priorHash = %s, want %s", events[1].PriorHash, firstHash)
	}
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	s := openTestStore(t)
	matchID := ids.NewMatchID()

	for i := 0; i < 3; i++ {
		_, _, err := s.Append(AppendInput{
			MatchID: matchID, ScorerID: "scorer-a", ScorerSide: model.ScorerHome,
			Kind: model.EventBallRecorded, Payload: model.BallPayload{RunsOffBat: i}, Now: time.Now(),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ok, broken, err := s.VerifyChain(matchID)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if !ok || broken != 0 {
		t.Fatalf("expected intact chain, got ok=%v broken=%d", ok, broken)
	}

	_, err = s.db.Exec(`UPDATE events SET payload_json = ? WHERE match_id = ? AND sequence_number = ?`,
		`{"runsOffBat":99}`, string(matchID), 2)
	if err != nil {
		t.Fatalf("tamper: %v", err)
	}

	ok, broken, err = s.VerifyChain(matchID)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if ok {
		t.Fatal("expected VerifyChain to detect the tamper")
	}
	if broken != 2 {
		t.Fatalf("broken at seq %d, want 2", broken)
	}
}

func TestReadRangeRoundTripsPayload(t *testing.T) {
	s := openTestStore(t)
	matchID := ids.NewMatchID()

	payload := model.BallPayload{
		RunsOffBat: 4,
		IsBoundary: true,
		BoundaryKind: model.BoundaryFour,
		ExtraKind:  model.ExtraNone,
		IsLegal:    true,
	}
	_, _, err := s.Append(AppendInput{
		MatchID: matchID, ScorerID: "scorer-a", ScorerSide: model.ScorerHome,
		Kind: model.EventBallRecorded, Payload: payload, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := s.ReadRange(matchID, 1, -1)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Payload.RunsOffBat != 4 || !events[0].Payload.IsBoundary {
		t.Fatalf("round-tripped payload mismatch: %+v", events[0].Payload)
	}
}
