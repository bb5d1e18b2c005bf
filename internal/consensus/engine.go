package consensus

import (
	"sync"
	"time"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// Method is re-exported for callers that only need the consensus engine and
// don't want to import model directly.
type Method = model.ValidationSource

// Outcome is what C4 decides after folding one more raw event into a
// logical ball's pending set.
type Outcome struct {
	Settled    bool // true once a canonical payload (or a dispute) is decided
	Method     Method
	Canonical  model.BallPayload
	EventIDs   []ids.EventID
	Confidence float64

	Disputed   bool
	DisputeKind model.DisputeKind
}

// pendingBall accumulates the raw events addressing one logical ball while
// C4 waits for a sibling or the window to expire. Modelled on the teacher's
// ScoreDropTracker: a single struct tracks "first seen" plus the data needed
// to decide confirm/reject/pending on each new arrival, generalized here
// from one scalar score pair to an arbitrary-sized sibling set.
type pendingBall struct {
	firstSeen time.Time
	events    []model.ScoringEvent
}

// Engine is the in-memory matcher for one process. It holds per-match,
// per-logical-ball pending sets under a single mutex; the match actor
// (internal/match) is the only caller, so contention is low and scoped to
// one match at a time in practice.
type Engine struct {
	mu      sync.Mutex
	policy  Policy
	pending map[ids.MatchID]map[model.BallNumber]*pendingBall
	clock   func() time.Time
}

// NewEngine constructs an Engine for policy. Clock defaults to time.Now;
// tests may override it via WithClock for deterministic window expiry.
func NewEngine(policy Policy) *Engine {
	return &Engine{
		policy:  policy,
		pending: make(map[ids.MatchID]map[model.BallNumber]*pendingBall),
		clock:   time.Now,
	}
}

// WithClock overrides the engine's time source. Intended for tests.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = clock
	return e
}

// Submit folds event into the pending set for its logical ball and returns
// the resulting Outcome. An unsettled Outcome means the caller should hold
// the ball and wait for a future Submit or Sweep to settle it.
func (e *Engine) Submit(matchID ids.MatchID, event model.ScoringEvent) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := event.Payload.LogicalBallKey()
	byBall := e.matchPending(matchID)
	pb, ok := byBall[key]
	if !ok {
		pb = &pendingBall{firstSeen: e.clock()}
		byBall[key] = pb
	}
	pb.events = append(pb.events, event)

	return e.decideLocked(matchID, key, pb)
}

// Sweep re-evaluates every pending ball in matchID against the current
// time, settling any whose window has expired without a match (either via
// the single-scorer fallback or by opening a dispute for a missing sibling).
// The match actor calls this on a periodic tick.
func (e *Engine) Sweep(matchID ids.MatchID, now time.Time) map[model.BallNumber]Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[model.BallNumber]Outcome)
	byBall := e.pending[matchID]
	for key, pb := range byBall {
		if !e.windowExpiredLocked(pb, now) {
			continue
		}
		o := e.decideLocked(matchID, key, pb)
		if o.Settled {
			out[key] = o
		}
	}
	return out
}

func (e *Engine) matchPending(matchID ids.MatchID) map[model.BallNumber]*pendingBall {
	byBall, ok := e.pending[matchID]
	if !ok {
		byBall = make(map[model.BallNumber]*pendingBall)
		e.pending[matchID] = byBall
	}
	return byBall
}

func (e *Engine) windowExpiredLocked(pb *pendingBall, now time.Time) bool {
	if now.Sub(pb.firstSeen) >= e.policy.WindowDuration {
		return true
	}
	return len(pb.events) >= e.policy.WindowEvents
}

// decideLocked applies the §4.4 decision rules, in priority order, to pb.
// Callers hold e.mu.
func (e *Engine) decideLocked(matchID ids.MatchID, key model.BallNumber, pb *pendingBall) Outcome {
	// Rule 1: an umpire/neutral event is always authoritative.
	if umpire, ok := findUmpireEvent(pb.events); ok {
		e.settleLocked(matchID, key)
		return Outcome{
			Settled:    true,
			Method:     model.SourceUmpireOverride,
			Canonical:  umpire.Payload,
			EventIDs:   []ids.EventID{umpire.ID},
			Confidence: 1.0,
		}
	}

	// Rule 2: two opposite-side scorer events that agree.
	if a, b, ok := findAgreeingPair(pb.events); ok {
		e.settleLocked(matchID, key)
		return Outcome{
			Settled:    true,
			Method:     model.SourceScorerMatch,
			Canonical:  a.Payload,
			EventIDs:   []ids.EventID{a.ID, b.ID},
			Confidence: 1.0,
		}
	}

	expired := e.windowExpiredLocked(pb, e.clock())
	if !expired {
		return Outcome{Settled: false}
	}

	// Rule 3: window expired with disagreeing siblings present → dispute.
	if hasDisagreeingPair(pb.events) {
		e.settleLocked(matchID, key)
		return Outcome{
			Settled:     true,
			Disputed:    true,
			DisputeKind: classifyDisagreement(pb.events),
			EventIDs:    eventIDs(pb.events),
		}
	}

	// Rule 4: window expired, exactly one scorer on file, policy allows it.
	if e.policy.SingleScorerAllowed && len(pb.events) >= 1 {
		lone := pb.events[0]
		e.settleLocked(matchID, key)
		return Outcome{
			Settled:    true,
			Method:     model.SourceSingleScorer,
			Canonical:  lone.Payload,
			EventIDs:   []ids.EventID{lone.ID},
			Confidence: 0.5,
		}
	}

	// Window expired, single scorer on file, no fallback policy: this is a
	// missing-sibling dispute, not silently dropped.
	e.settleLocked(matchID, key)
	return Outcome{
		Settled:     true,
		Disputed:    true,
		DisputeKind: model.MissingEvent,
		EventIDs:    eventIDs(pb.events),
	}
}

func (e *Engine) settleLocked(matchID ids.MatchID, key model.BallNumber) {
	delete(e.pending[matchID], key)
}

func findUmpireEvent(events []model.ScoringEvent) (model.ScoringEvent, bool) {
	for _, ev := range events {
		if ev.ScorerSide == model.ScorerNeutral {
			return ev, true
		}
	}
	return model.ScoringEvent{}, false
}

// findAgreeingPair returns the first pair of opposite-side events whose
// payloads agree on the fields named in §4.4 point 2.
func findAgreeingPair(events []model.ScoringEvent) (model.ScoringEvent, model.ScoringEvent, bool) {
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i], events[j]
			if a.ScorerSide == b.ScorerSide {
				continue
			}
			if payloadsAgree(a.Payload, b.Payload) {
				return a, b, true
			}
		}
	}
	return model.ScoringEvent{}, model.ScoringEvent{}, false
}

func hasDisagreeingPair(events []model.ScoringEvent) bool {
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			if events[i].ScorerSide == events[j].ScorerSide {
				continue
			}
			if !payloadsAgree(events[i].Payload, events[j].Payload) {
				return true
			}
		}
	}
	return false
}

func classifyDisagreement(events []model.ScoringEvent) model.DisputeKind {
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i].Payload, events[j].Payload
			if events[i].ScorerSide == events[j].ScorerSide {
				continue
			}
			if a.IsWicket != b.IsWicket {
				return model.WicketDiffer
			}
			if a.ExtraKind != b.ExtraKind {
				return model.ExtraKindDiffer
			}
			if a.RunsOffBat != b.RunsOffBat || a.ExtraRuns != b.ExtraRuns {
				return model.RunsDiffer
			}
			if a.IsWicket && b.IsWicket {
				if (a.Wicket == nil) != (b.Wicket == nil) {
					return model.WicketDiffer
				}
				if a.Wicket != nil && b.Wicket != nil {
					if a.Wicket.Kind != b.Wicket.Kind || a.Wicket.BatsmanOut != b.Wicket.BatsmanOut {
						return model.WicketDiffer
					}
				}
			}
		}
	}
	return model.RunsDiffer
}

func payloadsAgree(a, b model.BallPayload) bool {
	if a.RunsOffBat != b.RunsOffBat || a.ExtraKind != b.ExtraKind || a.ExtraRuns != b.ExtraRuns || a.IsWicket != b.IsWicket {
		return false
	}
	if !a.IsWicket {
		return true
	}
	if (a.Wicket == nil) != (b.Wicket == nil) {
		return false
	}
	if a.Wicket == nil {
		return true
	}
	return a.Wicket.Kind == b.Wicket.Kind && a.Wicket.BatsmanOut == b.Wicket.BatsmanOut
}

func eventIDs(events []model.ScoringEvent) []ids.EventID {
	out := make([]ids.EventID, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
