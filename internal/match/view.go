package match

import (
	"context"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/projector"
)

// View is a read-only snapshot of a match's current derived state, returned
// to C6 for the ConnectionEstablished handshake (§4.6 "current match state,
// current innings derived view, current striker/non-striker/bowler
// aggregates").
type View struct {
	Match          model.Match
	CurrentInnings *projector.InningsSnapshot
}

// View returns the actor's current state. Safe to call concurrently; it
// runs on the actor's own goroutine like every other command.
func (a *Actor) View(ctx context.Context) (View, error) {
	var v View
	err := a.do(ctx, func() error {
		v.Match = a.match
		v.CurrentInnings = a.currentInnings()
		return nil
	})
	return v, err
}

// Innings returns the derived snapshot for inningsID, or nil if unknown.
func (a *Actor) Innings(ctx context.Context, inningsID ids.InningsID) (*projector.InningsSnapshot, error) {
	var snap *projector.InningsSnapshot
	err := a.do(ctx, func() error {
		snap = a.innings[inningsID]
		return nil
	})
	return snap, err
}

// ListDisputes returns every dispute recorded against the match (§4.8
// getDisputes), open and resolved.
func (a *Actor) ListDisputes(ctx context.Context) ([]model.Dispute, error) {
	var out []model.Dispute
	err := a.do(ctx, func() error {
		out = a.held.List(a.matchID)
		return nil
	})
	return out, err
}
