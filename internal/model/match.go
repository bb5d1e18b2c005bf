package model

import "livecricket.dev/scoring/internal/ids"

// MatchState is a node in the lifecycle DAG (§4.5).
type MatchState string

const (
	MatchScheduled    MatchState = "Scheduled"
	MatchTossPending  MatchState = "TossPending"
	MatchLive         MatchState = "Live"
	MatchInningsBreak MatchState = "InningsBreak"
	MatchCompleted    MatchState = "Completed"
	MatchAbandoned    MatchState = "Abandoned"
)

// TeamSide identifies one of the two contesting teams.
type TeamSide string

const (
	TeamA TeamSide = "TeamA"
	TeamB TeamSide = "TeamB"
)

// Elected is the toss-winner's choice.
type Elected string

const (
	ElectedBat  Elected = "Bat"
	ElectedBowl Elected = "Bowl"
)

// TossOutcome records who won the toss and what they elected to do.
type TossOutcome struct {
	WonBy   TeamSide `json:"wonBy"`
	Elected Elected  `json:"elected"`
}

// OfficialRole is the authorization role an accredited official holds for a
// match (§4.7: "identity is an active official for the match with a role
// sufficient for the command").
type OfficialRole string

const (
	RoleScorer   OfficialRole = "Scorer"
	RoleOfficial OfficialRole = "Official"
)

// Official is one entry in a match's accreditation roster. Scorers carry a
// Side so C7 knows which half of a dual-scorer pair a SubmitBall call
// represents; officials (umpires/referees) do not.
type Official struct {
	PlayerID ids.PlayerID `json:"playerId"`
	Role     OfficialRole `json:"role"`
	Side     ScorerSide   `json:"side,omitempty"`
}

// Match is the root aggregate for one fixture.
type Match struct {
	ID        ids.MatchID `json:"id"`
	TeamAName string      `json:"teamAName"`
	TeamBName string      `json:"teamBName"`
	Rules     MatchRules  `json:"rules"`
	Toss      *TossOutcome `json:"toss,omitempty"`
	State     MatchState  `json:"state"`
	CreatorID ids.PlayerID `json:"creatorId"`

	// PlayingXI maps each side to its registered XI, present once set.
	PlayingXI map[TeamSide]*PlayingSide `json:"playingXi,omitempty"`

	// Officials is the accreditation roster C7 authorizes commands against.
	Officials []Official `json:"officials,omitempty"`

	// InningsOrder lists innings in the order they were opened.
	InningsOrder []ids.InningsID `json:"inningsOrder,omitempty"`

	// Winner and Margin are populated when State == MatchCompleted.
	Winner TeamSide `json:"winner,omitempty"`
	Margin string   `json:"margin,omitempty"`
}

// PlayingSide is the registered XI for one team in one match (§3).
type PlayingSide struct {
	Team    TeamSide         `json:"team"`
	Players []PlayingXIEntry `json:"players"`
}

// PlayingXIEntry is one player's role flags within a PlayingSide.
type PlayingXIEntry struct {
	PlayerID     ids.PlayerID `json:"playerId"`
	Name         string       `json:"name"`
	CanBat       bool         `json:"canBat"`
	CanBowl      bool         `json:"canBowl"`
	IsKeeper     bool         `json:"isKeeper"`
	IsCaptain    bool         `json:"isCaptain"`
	BattingOrder int          `json:"battingOrder"`
}

// CaptainID returns the captain of this side, or zero value if none is set
// (callers validate exactly-one-captain at SetPlayingXI time).
func (p *PlayingSide) CaptainID() (ids.PlayerID, bool) {
	for _, e := range p.Players {
		if e.IsCaptain {
			return e.PlayerID, true
		}
	}
	return "", false
}

// Has reports whether playerID is a registered member of this side.
func (p *PlayingSide) Has(playerID ids.PlayerID) (PlayingXIEntry, bool) {
	for _, e := range p.Players {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return PlayingXIEntry{}, false
}

// OfficialEntry returns playerID's accreditation roster entry, if any.
func (m *Match) OfficialEntry(playerID ids.PlayerID) (Official, bool) {
	for _, o := range m.Officials {
		if o.PlayerID == playerID {
			return o, true
		}
	}
	return Official{}, false
}

// OppositeSide returns the other team of a two-team match.
func OppositeSide(side TeamSide) TeamSide {
	if side == TeamA {
		return TeamB
	}
	return TeamA
}
