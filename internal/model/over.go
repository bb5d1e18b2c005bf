package model

import "livecricket.dev/scoring/internal/ids"

// Over tracks one bowler's spell for six (or rules.BallsPerOver) legal
// deliveries (§3).
type Over struct {
	ID            ids.OverID    `json:"id"`
	InningsID     ids.InningsID `json:"inningsId"`
	OverNumber    int           `json:"overNumber"`
	Bowler        ids.PlayerID  `json:"bowler"`
	LegalDeliveries int         `json:"legalDeliveries"`
	RunsConceded  int           `json:"runsConceded"`
	WicketsTaken  int           `json:"wicketsTaken"`
	ExtrasInOver  int           `json:"extrasInOver"`
	BallSymbols   []string      `json:"ballSymbols,omitempty"`

	Maiden    bool `json:"maiden"`
	Completed bool `json:"completed"`
}

// Economy returns runs conceded per six balls bowled (ballsPerOver is
// always normalized to 6 regardless of the match's actual rules), or
// (0, false) if no legal balls have been bowled yet (§4.3).
func (o *Over) Economy() (float64, bool) {
	if o.LegalDeliveries == 0 {
		return 0, false
	}
	return float64(o.RunsConceded) * 6 / float64(o.LegalDeliveries), true
}
