// Package consensus implements C4: matching independent scorers' events for
// the same logical ball, opening and resolving disputes, and holding
// out-of-order canonical commits until earlier disputes clear (§4.4).
package consensus

import "time"

// Policy configures the matching window and the optional single-scorer
// fallback. The zero value is not usable; construct with DefaultPolicy or a
// config loader.
type Policy struct {
	// WindowDuration is how long C4 waits for a sibling event before
	// declaring the ball disputed or (if SingleScorerAllowed) accepting a
	// lone scorer's submission.
	WindowDuration time.Duration `json:"windowSeconds" yaml:"windowSeconds"`

	// WindowEvents caps how many events for the same logical ball may
	// accumulate before the window is considered to have passed for matching
	// purposes, independent of wall-clock time (§4.4 "last K events"). Events
	// on other balls of the match do not count toward it.
	WindowEvents int `json:"windowEvents" yaml:"windowEvents"`

	// SingleScorerAllowed enables method=SingleScorerAccepted when the
	// window expires with exactly one scorer's event on file (default off
	// per §4.4 point 4).
	SingleScorerAllowed bool `json:"singleScorerAllowed" yaml:"singleScorerAllowed"`
}

// DefaultPolicy is the production default: 30s / 8 events, no single-scorer
// fallback (§4.4).
func DefaultPolicy() Policy {
	return Policy{
		WindowDuration: 30 * time.Second,
		WindowEvents:   8,
		SingleScorerAllowed: false,
	}
}

// TestPolicy is a small, deterministic window suitable for unit tests (§9
// open question: "for tests, it must be overridable to a deterministic,
// small value").
func TestPolicy() Policy {
	return Policy{
		WindowDuration: 50 * time.Millisecond,
		WindowEvents:   2,
		SingleScorerAllowed: true,
	}
}
