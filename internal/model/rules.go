package model

// TieBreakMode selects how a tied match is resolved.
type TieBreakMode string

const (
	TieBreakNone       TieBreakMode = "None"
	TieBreakSuperOver   TieBreakMode = "SuperOver"
	TieBreakBoundaryCount TieBreakMode = "BoundaryCount"
)

// MatchRules is the frozen-once-Live configuration for a match (§3, §4.5).
type MatchRules struct {
	Overs                       int          `json:"overs" yaml:"overs"`
	BallsPerOver                int          `json:"ballsPerOver" yaml:"ballsPerOver"`
	PlayersPerSide              int          `json:"playersPerSide" yaml:"playersPerSide"`
	WicketsToFall               int          `json:"wicketsToFall" yaml:"wicketsToFall"`
	PowerplayOvers              int          `json:"powerplayOvers" yaml:"powerplayOvers"`
	TieBreak                    TieBreakMode `json:"tieBreak" yaml:"tieBreak"`
	AllowSameBowlerConsecutive  bool         `json:"allowSameBowlerConsecutive" yaml:"allowSameBowlerConsecutive"`
	RequireKeeper               bool         `json:"requireKeeper" yaml:"requireKeeper"`
	SingleScorerPolicy          bool         `json:"singleScorerPolicy" yaml:"singleScorerPolicy"`
}

// LegalBallsPerInnings is the total number of legal deliveries one innings
// may face before the over-count termination condition fires.
func (r MatchRules) LegalBallsPerInnings() int {
	return r.Overs * r.BallsPerOver
}

// T20 returns the canonical Twenty20 rule set used throughout §8's
// end-to-end scenarios.
func T20() MatchRules {
	return MatchRules{
		Overs:          20,
		BallsPerOver:   6,
		PlayersPerSide: 11,
		WicketsToFall:  10,
		PowerplayOvers: 6,
		TieBreak:       TieBreakSuperOver,
		RequireKeeper:  true,
	}
}

// ODI returns the 50-over one-day rule set.
func ODI() MatchRules {
	r := T20()
	r.Overs = 50
	r.PowerplayOvers = 10
	r.TieBreak = TieBreakNone
	return r
}

// Test returns an unlimited-overs rule set (0 overs means no over cap; the
// projector and rule engine treat Overs<=0 as "no limit" for termination).
func Test() MatchRules {
	r := T20()
	r.Overs = 0
	r.PowerplayOvers = 0
	r.TieBreak = TieBreakNone
	return r
}
