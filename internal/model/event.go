package model

import (
	"time"

	"livecricket.dev/scoring/internal/ids"
)

// ScorerSide is who the scorer represents (GLOSSARY).
type ScorerSide string

const (
	ScorerHome    ScorerSide = "Home"
	ScorerAway    ScorerSide = "Away"
	ScorerNeutral ScorerSide = "Neutral"
)

// EventKind is the discriminator for a ScoringEvent's payload (§3, §9).
type EventKind string

const (
	EventBallRecorded    EventKind = "BallRecorded"
	EventWicketRecorded  EventKind = "WicketRecorded"
	EventOverOpened      EventKind = "OverOpened"
	EventInningsOpened   EventKind = "InningsOpened"
	EventInningsClosed   EventKind = "InningsClosed"
	EventCorrection      EventKind = "Correction"
	EventDisputeRaised   EventKind = "DisputeRaised"
	EventDisputeResolved EventKind = "DisputeResolved"
)

// SentinelPriorHash is used as the priorHash of the first event in a match's
// chain (§4.1).
const SentinelPriorHash = "0000000000000000000000000000000000000000000000000000000000000000"

// BallPayload is the kind-specific payload for BallRecorded/WicketRecorded/
// Correction events — the fields a scorer actually submits for one ball.
type BallPayload struct {
	InningsID  ids.InningsID `json:"inningsId"`
	OverID     ids.OverID    `json:"overId"`
	Number     BallNumber    `json:"number"`
	Bowler     ids.PlayerID  `json:"bowler"`
	Striker    ids.PlayerID  `json:"striker"`
	NonStriker ids.PlayerID  `json:"nonStriker"`

	RunsOffBat   int          `json:"runsOffBat"`
	IsBoundary   bool         `json:"isBoundary"`
	BoundaryKind BoundaryKind `json:"boundaryKind,omitempty"`
	IsLegal      bool         `json:"isLegal"`
	ExtraKind    ExtraKind    `json:"extraKind"`
	ExtraRuns    int          `json:"extraRuns"`

	IsWicket   bool          `json:"isWicket"`
	Wicket     *WicketPayload `json:"wicket,omitempty"`

	ShotKind         string `json:"shotKind,omitempty"`
	FieldingPosition string `json:"fieldingPosition,omitempty"`

	// CorrectsEventID is set only on Correction events, referencing the
	// earlier event this one supersedes (§1: "corrections are modelled as
	// new events referencing the earlier one").
	CorrectsEventID ids.EventID `json:"correctsEventId,omitempty"`

	// Extensions is a forward-compatible bag for fields not yet named here
	// (§9 "Dynamic/runtime-typed payloads").
	Extensions map[string]any `json:"extensions,omitempty"`
}

// WicketPayload is the wicket-specific sub-fields of a BallPayload.
type WicketPayload struct {
	Kind         DismissalKind  `json:"kind"`
	BatsmanOut   ids.PlayerID   `json:"batsmanOut"`
	BowlerCredit ids.PlayerID   `json:"bowlerCredit,omitempty"`
	Fielders     []ids.PlayerID `json:"fielders,omitempty"`
}

// LogicalBallKey identifies the ball a payload addresses, independent of
// who submitted it — used by the consensus engine to find siblings.
func (p *BallPayload) LogicalBallKey() BallNumber { return p.Number }

// ScoringEvent is the atomic, append-only unit stored by C1 (§3).
type ScoringEvent struct {
	ID             ids.EventID   `json:"id"`
	MatchID        ids.MatchID   `json:"matchId"`
	InningsID      ids.InningsID `json:"inningsId,omitempty"`
	BallID         ids.BallID    `json:"ballId,omitempty"`
	ScorerID       ids.ScorerID  `json:"scorerId"`
	ScorerSide     ScorerSide    `json:"scorerSide"`
	Kind           EventKind     `json:"kind"`
	Payload        BallPayload   `json:"payload"`
	PriorHash      string        `json:"priorHash"`
	EventHash      string        `json:"eventHash"`
	Signature      string        `json:"signature"`
	EventTimestamp time.Time     `json:"eventTimestamp"`
	SequenceNumber int64         `json:"sequenceNumber"`
}
