// Package match implements the per-match actor: one goroutine owns a
// match's mutable state (innings snapshots, playing XIs, pending disputes)
// and every mutation is serialized through its inbox, directly generalizing
// the teacher's GameContext/Send actor model (§5 "single-writer-per-match").
package match

import (
	"context"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/lifecycle"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/projector"
	"livecricket.dev/scoring/internal/telemetry"
)

// Broadcaster is the narrow interface the actor needs from C6. The hub
// package implements it; the actor never imports the hub directly.
type Broadcaster interface {
	Publish(matchID ids.MatchID, kind string, data any)
}

// Actor owns one match's live state. All reads and writes happen inside
// closures run on the actor's own goroutine via do(); exported methods are
// safe to call concurrently from many HTTP handlers.
type Actor struct {
	matchID ids.MatchID
	inbox   chan func()
	stopped chan struct{}

	store       *eventstore.Store
	consensus   *consensus.Engine
	held        *consensus.HeldBuffer
	broadcaster Broadcaster

	match             model.Match
	innings           map[ids.InningsID]*projector.InningsSnapshot
	currentInningsID  ids.InningsID
	lastOverBowler    ids.PlayerID
	lastOverNumber    int
}

// NewActor constructs and starts an actor for match. The caller retains
// ownership of store/consensus/held (shared across all matches); broadcaster
// is typically the process-wide hub.
func NewActor(m model.Match, store *eventstore.Store, engine *consensus.Engine, held *consensus.HeldBuffer, broadcaster Broadcaster) *Actor {
	a := &Actor{
		matchID:     m.ID,
		inbox:       make(chan func(), 256),
		stopped:     make(chan struct{}),
		store:       store,
		consensus:   engine,
		held:        held,
		broadcaster: broadcaster,
		match:       m,
		innings:     make(map[ids.InningsID]*projector.InningsSnapshot),
		lastOverNumber: -1,
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	defer close(a.stopped)
	for fn := range a.inbox {
		fn()
	}
}

// Close shuts down the actor's goroutine and waits for it to drain.
func (a *Actor) Close() {
	close(a.inbox)
	<-a.stopped
}

// do runs fn on the actor's goroutine and blocks for its result, bounded by
// ctx (§5 "a command carries a deadline; default 5s").
func (a *Actor) do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	select {
	case a.inbox <- func() { done <- fn() }:
	case <-ctx.Done():
		telemetry.Metrics.InboxOverflows.Inc()
		return apperr.Transientf("match lock acquisition timed out", ctx.Err())
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apperr.Transientf("command deadline exceeded", ctx.Err())
	}
}

// MatchID returns the actor's match identifier.
func (a *Actor) MatchID() ids.MatchID { return a.matchID }

func (a *Actor) currentInnings() *projector.InningsSnapshot {
	return a.innings[a.currentInningsID]
}

func (a *Actor) broadcast(kind string, data any) {
	if a.broadcaster != nil {
		a.broadcaster.Publish(a.matchID, kind, data)
	}
}
