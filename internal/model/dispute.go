package model

import (
	"time"

	"livecricket.dev/scoring/internal/ids"
)

// DisputeKind classifies why two scorer events disagree (§3).
type DisputeKind string

const (
	RunsDiffer      DisputeKind = "RunsDiffer"
	WicketDiffer    DisputeKind = "WicketDiffer"
	ExtraKindDiffer DisputeKind = "ExtraKindDiffer"
	MissingEvent    DisputeKind = "Missing"
)

// DisputeStatus is the dispute's place in its lifecycle.
type DisputeStatus string

const (
	DisputeOpen      DisputeStatus = "Open"
	DisputeResolved  DisputeStatus = "Resolved"
	DisputeAbandoned DisputeStatus = "Abandoned"
)

// Dispute references the raw events that disagree on a single logical ball.
type Dispute struct {
	ID               ids.DisputeID `json:"id"`
	MatchID          ids.MatchID   `json:"matchId"`
	BallNumber       BallNumber    `json:"ballNumber"`
	Kind             DisputeKind   `json:"kind"`
	Status           DisputeStatus `json:"status"`
	EventIDs         []ids.EventID `json:"eventIds"`
	UmpireEventID    ids.EventID   `json:"umpireEventId,omitempty"`
	ResolutionMethod ValidationSource `json:"resolutionMethod,omitempty"`
	FinalPayload     *BallPayload  `json:"finalPayload,omitempty"`
	ResolverID       ids.PlayerID  `json:"resolverId,omitempty"`
	OpenedAt         time.Time     `json:"openedAt"`
	ResolvedAt       *time.Time    `json:"resolvedAt,omitempty"`
}

// LatencyMs returns the resolution latency in milliseconds, or -1 if still
// open.
func (d *Dispute) LatencyMs() int64 {
	if d.ResolvedAt == nil {
		return -1
	}
	return d.ResolvedAt.Sub(d.OpenedAt).Milliseconds()
}

// Consensus records how a canonical ball's payload was agreed on (§3).
type Consensus struct {
	ID             ids.ConsensusID  `json:"id"`
	MatchID        ids.MatchID      `json:"matchId"`
	BallNumber     BallNumber       `json:"ballNumber"`
	EventIDs       []ids.EventID    `json:"eventIds"`
	Method         ValidationSource `json:"method"`
	Confidence     float64          `json:"confidence"`
	CanonicalPayload BallPayload    `json:"canonicalPayload"`
	AppliedToBall  bool             `json:"appliedToBall"`
	AuthorityID    ids.PlayerID     `json:"authorityId,omitempty"`
}
