package consensus

import (
	"sort"
	"sync"
	"time"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// QueuedCommit is a canonical commit waiting on an earlier ball's dispute to
// resolve before it can reach the projector and the hub (§4.4 "Ordering").
type QueuedCommit struct {
	BallNumber model.BallNumber
	Payload    model.BallPayload
	EventIDs   []ids.EventID
	Method     Method
	Confidence float64
}

// HeldBuffer enforces logical ball order across concurrent disputes: a
// commit at ball (n, k) is held back whenever any open dispute addresses a
// ball at or before (n, k). Releasing a dispute may unblock a run of queued
// commits in one step, which the caller broadcasts as a single
// Reconciliation.
type HeldBuffer struct {
	mu       sync.Mutex
	disputed map[ids.MatchID]map[model.BallNumber]struct{}
	queued   map[ids.MatchID][]QueuedCommit
	disputes map[ids.MatchID]map[model.BallNumber]*model.Dispute
}

// NewHeldBuffer returns an empty buffer.
func NewHeldBuffer() *HeldBuffer {
	return &HeldBuffer{
		disputed: make(map[ids.MatchID]map[model.BallNumber]struct{}),
		queued:   make(map[ids.MatchID][]QueuedCommit),
		disputes: make(map[ids.MatchID]map[model.BallNumber]*model.Dispute),
	}
}

// OpenDispute marks ballNumber as disputed, holding back any later commit,
// and records a queryable model.Dispute for C8's getDisputes (§4.7/§4.8).
func (h *HeldBuffer) OpenDispute(matchID ids.MatchID, ballNumber model.BallNumber, kind model.DisputeKind, eventIDs []ids.EventID, now time.Time) model.Dispute {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.disputed[matchID]
	if !ok {
		set = make(map[model.BallNumber]struct{})
		h.disputed[matchID] = set
	}
	set[ballNumber] = struct{}{}

	byBall, ok := h.disputes[matchID]
	if !ok {
		byBall = make(map[model.BallNumber]*model.Dispute)
		h.disputes[matchID] = byBall
	}
	d := &model.Dispute{
		ID:         ids.NewDisputeID(),
		MatchID:    matchID,
		BallNumber: ballNumber,
		Kind:       kind,
		Status:     model.DisputeOpen,
		EventIDs:   eventIDs,
		OpenedAt:   now,
	}
	byBall[ballNumber] = d
	return *d
}

// List returns every dispute recorded for matchID (open and resolved),
// ordered by logical ball number.
func (h *HeldBuffer) List(matchID ids.MatchID) []model.Dispute {
	h.mu.Lock()
	defer h.mu.Unlock()
	byBall := h.disputes[matchID]
	out := make([]model.Dispute, 0, len(byBall))
	for _, d := range byBall {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BallNumber.Less(out[j].BallNumber) })
	return out
}

// IsHeld reports whether a commit at ballNumber must wait: some open
// dispute exists at an earlier-or-equal logical ball.
func (h *HeldBuffer) IsHeld(matchID ids.MatchID, ballNumber model.BallNumber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isHeldLocked(matchID, ballNumber)
}

func (h *HeldBuffer) isHeldLocked(matchID ids.MatchID, ballNumber model.BallNumber) bool {
	for disputedAt := range h.disputed[matchID] {
		if disputedAt.Less(ballNumber) || disputedAt.Equal(ballNumber) {
			return true
		}
	}
	return false
}

// Enqueue admits a settled commit into the held queue. It stays queued until
// a Resolve call leaves no open dispute at or before its ball number, and
// Resolve then returns it; TryCommit is the check for whether a fresh commit
// needs queuing at all.
func (h *HeldBuffer) Enqueue(matchID ids.MatchID, commit QueuedCommit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	q := append(h.queued[matchID], commit)
	sort.Slice(q, func(i, j int) bool { return q[i].BallNumber.Less(q[j].BallNumber) })
	h.queued[matchID] = q
}

// Resolve clears ballNumber's dispute and returns, in logical order, every
// queued commit that is no longer held by any remaining dispute. Those
// commits are removed from the queue; the caller applies them to the
// projector and broadcasts a single Reconciliation listing them.
func (h *HeldBuffer) Resolve(matchID ids.MatchID, ballNumber model.BallNumber, resolverID ids.PlayerID, method model.ValidationSource, finalPayload model.BallPayload, now time.Time) []QueuedCommit {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.disputed[matchID]; ok {
		delete(set, ballNumber)
		if len(set) == 0 {
			delete(h.disputed, matchID)
		}
	}
	if byBall, ok := h.disputes[matchID]; ok {
		if d, ok := byBall[ballNumber]; ok {
			d.Status = model.DisputeResolved
			d.ResolutionMethod = method
			fp := finalPayload
			d.FinalPayload = &fp
			d.ResolverID = resolverID
			resolvedAt := now
			d.ResolvedAt = &resolvedAt
		}
	}

	q := h.queued[matchID]
	var released []QueuedCommit
	var remaining []QueuedCommit
	for _, c := range q {
		if h.isHeldLocked(matchID, c.BallNumber) {
			remaining = append(remaining, c)
			continue
		}
		released = append(released, c)
	}
	h.queued[matchID] = remaining
	return released
}

// TryCommit reports whether a fresh (non-queued) commit at ballNumber can go
// straight through, bypassing the queue entirely. Use this on the hot path
// before falling back to Enqueue.
func (h *HeldBuffer) TryCommit(matchID ids.MatchID, ballNumber model.BallNumber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.isHeldLocked(matchID, ballNumber)
}
