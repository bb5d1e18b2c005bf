package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"livecricket.dev/scoring/internal/ids"
)

// ExtraKind is the category of extra applied to a delivery (§4.2).
type ExtraKind string

const (
	ExtraNone    ExtraKind = "None"
	ExtraWide    ExtraKind = "Wide"
	ExtraNoBall  ExtraKind = "NoBall"
	ExtraBye     ExtraKind = "Bye"
	ExtraLegBye  ExtraKind = "LegBye"
	ExtraPenalty ExtraKind = "Penalty"
)

// BoundaryKind distinguishes a four from a six.
type BoundaryKind string

const (
	BoundaryNone BoundaryKind = ""
	BoundaryFour BoundaryKind = "Four"
	BoundarySix  BoundaryKind = "Six"
)

// ValidationSource records how a canonical ball reached consensus.
type ValidationSource string

const (
	SourceScorerMatch       ValidationSource = "ScorerMatch"
	SourceUmpireOverride    ValidationSource = "UmpireOverride"
	SourceSingleScorer      ValidationSource = "SingleScorerAccepted"
	SourceManualResolution  ValidationSource = "ManualResolution"
)

// BallNumber is the logical (overNumber, ballInOver) coordinate, regardless
// of whether the delivery is legal (GLOSSARY).
type BallNumber struct {
	Over int `json:"over"`
	Ball int `json:"ball"`
}

// Less orders ball numbers canonically: by over, then within-over ball.
func (b BallNumber) Less(other BallNumber) bool {
	if b.Over != other.Over {
		return b.Over < other.Over
	}
	return b.Ball < other.Ball
}

func (b BallNumber) Equal(other BallNumber) bool { return b == other }

// MarshalJSON renders a BallNumber in the wire's decimal over.ball notation
// (§5 "instants are ISO-8601... ballNumber (decimal like 15.4)").
func (b BallNumber) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d.%d", b.Over, b.Ball)), nil
}

// UnmarshalJSON parses the decimal over.ball notation back into a
// BallNumber; quoted or bare numeric tokens are both accepted.
func (b *BallNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	over, rest, _ := strings.Cut(s, ".")
	overN, err := strconv.Atoi(over)
	if err != nil {
		return fmt.Errorf("invalid ball number %q: %w", s, err)
	}
	ballN := 0
	if rest != "" {
		ballN, err = strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("invalid ball number %q: %w", s, err)
		}
	}
	b.Over = overN
	b.Ball = ballN
	return nil
}

// Ball is the canonical, immutable-once-committed delivery record (§3).
type Ball struct {
	ID        ids.BallID    `json:"id"`
	InningsID ids.InningsID `json:"inningsId"`
	OverID    ids.OverID    `json:"overId"`
	Number    BallNumber    `json:"number"`

	Bowler     ids.PlayerID `json:"bowler"`
	Striker    ids.PlayerID `json:"striker"`
	NonStriker ids.PlayerID `json:"nonStriker"`

	RunsOffBat   int          `json:"runsOffBat"`
	IsBoundary   bool         `json:"isBoundary"`
	BoundaryKind BoundaryKind `json:"boundaryKind,omitempty"`

	IsLegal   bool      `json:"isLegal"`
	ExtraKind ExtraKind `json:"extraKind"`
	ExtraRuns int       `json:"extraRuns"`

	IsWicket bool    `json:"isWicket"`
	Wicket   *Wicket `json:"wicket,omitempty"`

	ShotKind         string `json:"shotKind,omitempty"`
	FieldingPosition string `json:"fieldingPosition,omitempty"`

	ValidationSource ValidationSource `json:"validationSource"`
	Confidence       float64          `json:"confidence"`

	BowledAt time.Time `json:"bowledAt"`

	// CompensatesBall is set when this canonical ball replaces an earlier
	// one following a correction/dispute resolution (§3 "Ownership and
	// lifecycle").
	CompensatesBall ids.BallID `json:"compensatesBall,omitempty"`
}

// TotalRuns returns the runs this ball adds to the batting team's score:
// bat runs plus whatever extras count toward the team total.
func (b *Ball) TotalRuns() int {
	runs := b.RunsOffBat + b.ExtraRuns
	if b.ExtraKind == ExtraWide || b.ExtraKind == ExtraNoBall {
		runs++
	}
	return runs
}
