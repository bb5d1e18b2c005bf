// Package projector implements C3: folding the canonical ball stream into
// innings/over/batsman/bowler aggregates (§4.3). Project and Apply are
// deterministic — same event log prefix always yields byte-identical
// aggregates (§8 property 2). Apply mutates the snapshot it is given and
// stamps the ball's Wicket in place.
package projector

import (
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// BatsmanAggregate is one batsman's running tally within an innings.
type BatsmanAggregate struct {
	PlayerID ids.PlayerID
	Runs     int
	Balls    int
	Fours    int
	Sixes    int
	Out      bool
}

// StrikeRate returns runs per hundred balls faced, or (0, false) if the
// batsman has faced no legal deliveries yet (§4.3: "undefined for zero
// denominators... reported as unavailable").
func (b BatsmanAggregate) StrikeRate() (float64, bool) {
	if b.Balls == 0 {
		return 0, false
	}
	return float64(b.Runs) * 100 / float64(b.Balls), true
}

// BowlerAggregate is one bowler's running tally within an innings.
type BowlerAggregate struct {
	PlayerID     ids.PlayerID
	LegalBalls   int
	RunsConceded int
	Wickets      int
}

// Economy returns runs conceded per six legal balls bowled, or (0, false)
// if the bowler has bowled no legal balls yet.
func (b BowlerAggregate) Economy() (float64, bool) {
	if b.LegalBalls == 0 {
		return 0, false
	}
	return float64(b.RunsConceded) * 6 / float64(b.LegalBalls), true
}

// InningsSnapshot is the full derived state of one innings at a point in
// the event log.
type InningsSnapshot struct {
	Innings   model.Innings
	Overs     []model.Over
	Batsmen   map[ids.PlayerID]*BatsmanAggregate
	Bowlers   map[ids.PlayerID]*BowlerAggregate
	FallOfWickets []model.FallOfWicket

	// Balls is the canonical delivery history in commit order, serving C8's
	// getBalls(range) query (§4.8).
	Balls []model.Ball

	// partnershipRuns accumulates team runs since the last wicket fell (or
	// since the innings began), stamped onto the next Wicket and reset to 0.
	partnershipRuns int
}

// NewInningsSnapshot returns an empty snapshot seeded from innings.
func NewInningsSnapshot(innings model.Innings) *InningsSnapshot {
	return &InningsSnapshot{
		Innings: innings,
		Batsmen: make(map[ids.PlayerID]*BatsmanAggregate),
		Bowlers: make(map[ids.PlayerID]*BowlerAggregate),
	}
}

func (s *InningsSnapshot) batsman(id ids.PlayerID) *BatsmanAggregate {
	b, ok := s.Batsmen[id]
	if !ok {
		b = &BatsmanAggregate{PlayerID: id}
		s.Batsmen[id] = b
	}
	return b
}

func (s *InningsSnapshot) bowler(id ids.PlayerID) *BowlerAggregate {
	b, ok := s.Bowlers[id]
	if !ok {
		b = &BowlerAggregate{PlayerID: id}
		s.Bowlers[id] = b
	}
	return b
}

// EnsureOver returns the Over for overNumber, creating it with bowler if it
// does not yet exist and assigning it a fresh identifier (§4.7 command
// CreateOver runs ahead of any ball being submitted against the over).
func (s *InningsSnapshot) EnsureOver(overNumber int, bowler ids.PlayerID) *model.Over {
	over := s.currentOver(overNumber, bowler)
	if over.ID.IsZero() {
		over.ID = ids.NewOverID()
	}
	over.Bowler = bowler
	return over
}

// currentOver returns the over matching overNumber, creating it (with
// bowler) if it does not yet exist.
func (s *InningsSnapshot) currentOver(overNumber int, bowler ids.PlayerID) *model.Over {
	for i := range s.Overs {
		if s.Overs[i].OverNumber == overNumber {
			return &s.Overs[i]
		}
	}
	s.Overs = append(s.Overs, model.Over{
		InningsID:  s.Innings.ID,
		OverNumber: overNumber,
		Bowler:     bowler,
	})
	return &s.Overs[len(s.Overs)-1]
}
