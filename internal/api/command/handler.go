// Package command implements C7: the HTTP boundary that authenticates
// callers, validates requests, and dispatches into the match registry
// (§4.7), mirroring the teacher's goalserve_webhook.Handler.RegisterRoutes
// method-pattern routing convention.
package command

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/auth"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/match"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/telemetry"
)

// commandDeadline is the default bound on a command's acquisition of its
// match's actor lock (§5 "a command carries a deadline; default 5s").
const commandDeadline = 5 * time.Second

// Per-scorer SubmitBall rate limit: a retry storm from one scorer feed
// (client bug, flaky network) must not monopolize a match's inbox while the
// consensus window for other balls is still open.
const (
	submitBallRateLimit rate.Limit = 20
	submitBallBurst                = 40
)

// Handler is C7, the command-side HTTP boundary.
type Handler struct {
	registry *match.Registry
	verifier auth.Verifier

	limitersMu sync.Mutex
	limiters   map[ids.PlayerID]*rate.Limiter
}

// NewHandler constructs C7 against registry (C5) and verifier (auth
// non-goal interface).
func NewHandler(registry *match.Registry, verifier auth.Verifier) *Handler {
	return &Handler{
		registry: registry,
		verifier: verifier,
		limiters: make(map[ids.PlayerID]*rate.Limiter),
	}
}

// RegisterRoutes wires the representative command endpoints (§5 "Command
// endpoints") onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /matches", h.createMatch)
	mux.HandleFunc("POST /matches/{id}/toss", h.conductToss)
	mux.HandleFunc("POST /matches/{id}/playing-xi", h.setPlayingXI)
	mux.HandleFunc("POST /innings", h.openInnings)
	mux.HandleFunc("POST /innings/{id}/batsmen", h.setBatsmen)
	mux.HandleFunc("POST /innings/{id}/bowler", h.setBowler)
	mux.HandleFunc("POST /overs", h.createOver)
	mux.HandleFunc("POST /balls", h.submitBall)
	mux.HandleFunc("POST /disputes/{id}/resolve", h.resolveDispute)
}

// createMatch handles POST /matches (auth: creator-to-be; any authenticated
// identity may create a match and becomes its creator).
func (h *Handler) createMatch(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		TeamAName string            `json:"teamAName"`
		TeamBName string            `json:"teamBName"`
		Rules     model.MatchRules  `json:"rules"`
		Officials []model.Official  `json:"officials"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	m := model.Match{
		ID:        ids.NewMatchID(),
		TeamAName: body.TeamAName,
		TeamBName: body.TeamBName,
		Rules:     body.Rules,
		State:     model.MatchScheduled,
		CreatorID: callerID,
		Officials: body.Officials,
	}

	actor, err := h.registry.Create(m)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	view, err := actor.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Match)
}

// conductToss handles POST /matches/{id}/toss (auth: creator, checked
// inside Actor.ConductToss).
func (h *Handler) conductToss(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}

	var body struct {
		TossWonBy model.TeamSide `json:"tossWonBy"`
		ElectedTo model.Elected  `json:"electedTo"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if err := actor.ConductToss(ctx, callerID, body.TossWonBy, body.ElectedTo); err != nil {
		writeError(w, err)
		return
	}
	view, err := actor.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Match)
}

// setPlayingXI handles POST /matches/{id}/playing-xi (auth: captain or
// creator, checked inside Actor.SetPlayingXI).
func (h *Handler) setPlayingXI(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}

	var side model.PlayingSide
	if err := decodeJSON(r, &side); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if err := actor.SetPlayingXI(ctx, callerID, &side); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, side.Players)
}

// openInnings handles POST /innings (auth: scorer). The endpoint table
// scopes the body to InningsCreate; matchId is included since the
// single-writer-per-match actor model must resolve a registry entry before
// any innings command can run.
func (h *Handler) openInnings(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		MatchID     ids.MatchID    `json:"matchId"`
		BattingSide model.TeamSide `json:"battingSide"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if _, err := h.requireScorer(ctx, actor, callerID); err != nil {
		writeError(w, err)
		return
	}

	inningsID, err := actor.OpenInnings(ctx, body.BattingSide)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := actor.Innings(ctx, inningsID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Innings)
}

// setBatsmen handles POST /innings/{id}/batsmen (auth: scorer).
func (h *Handler) setBatsmen(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		MatchID      ids.MatchID  `json:"matchId"`
		StrikerID    ids.PlayerID `json:"strikerId"`
		NonStrikerID ids.PlayerID `json:"nonStrikerId,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}
	inningsID, err := ids.Parse[ids.InningsID](r.PathValue("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("id", "malformed innings id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if _, err := h.requireScorer(ctx, actor, callerID); err != nil {
		writeError(w, err)
		return
	}
	if err := actor.SetBatsmen(ctx, body.StrikerID, body.NonStrikerID); err != nil {
		writeError(w, err)
		return
	}
	snap, err := actor.Innings(ctx, inningsID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Innings)
}

// setBowler handles POST /innings/{id}/bowler (auth: scorer).
func (h *Handler) setBowler(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		MatchID  ids.MatchID  `json:"matchId"`
		BowlerID ids.PlayerID `json:"bowlerId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}
	inningsID, err := ids.Parse[ids.InningsID](r.PathValue("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("id", "malformed innings id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if _, err := h.requireScorer(ctx, actor, callerID); err != nil {
		writeError(w, err)
		return
	}
	if err := actor.SetBowler(ctx, body.BowlerID); err != nil {
		writeError(w, err)
		return
	}
	snap, err := actor.Innings(ctx, inningsID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Innings)
}

// createOver handles POST /overs (auth: scorer).
func (h *Handler) createOver(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		MatchID    ids.MatchID   `json:"matchId"`
		InningsID  ids.InningsID `json:"inningsId"`
		OverNumber int           `json:"overNumber"`
		BowlerID   ids.PlayerID  `json:"bowlerId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if _, err := h.requireScorer(ctx, actor, callerID); err != nil {
		writeError(w, err)
		return
	}

	overID, err := actor.CreateOver(ctx, body.OverNumber, body.BowlerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         overID,
		"inningsId":  body.InningsID,
		"overNumber": body.OverNumber,
		"bowlerId":   body.BowlerID,
	})
}

// submitBall handles POST /balls (auth: scorer), the hot path: legality
// check, raw append, consensus match, and (on settlement) canonical commit
// and broadcast, all inside Actor.SubmitBall.
func (h *Handler) submitBall(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.limiterFor(callerID).Allow() {
		writeError(w, apperr.Transientf("submission rate exceeded, retry shortly", nil))
		return
	}

	var body BallSubmitRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	side, err := h.requireScorer(ctx, actor, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := actor.SubmitBall(ctx, ids.ScorerID(callerID), side, body.toPayload())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settled":    outcome.Settled,
		"disputed":   outcome.Disputed,
		"method":     outcome.Method,
		"confidence": outcome.Confidence,
	})
}

// resolveDispute handles POST /disputes/{id}/resolve (auth: official,
// checked both here and inside Actor.ResolveDispute).
func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.CommandsReceived.Inc()
	callerID, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		MatchID      ids.MatchID       `json:"matchId"`
		BallNumber   model.BallNumber  `json:"ballNumber"`
		FinalPayload model.BallPayload `json:"finalPayload"`
		Method       string            `json:"method"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor, ok := h.actorFor(w, body.MatchID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), commandDeadline)
	defer cancel()
	if err := h.requireOfficial(ctx, actor, callerID); err != nil {
		writeError(w, err)
		return
	}
	if err := actor.ResolveDispute(ctx, callerID, body.BallNumber, body.FinalPayload); err != nil {
		writeError(w, err)
		return
	}
	disputes, err := actor.ListDisputes(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, d := range disputes {
		if d.BallNumber.Equal(body.BallNumber) {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ballNumber": body.BallNumber, "status": model.DisputeResolved})
}

// BallSubmitRequest is the wire body for POST /balls (§5 "BallSubmit
// payload (core semantic fields only)").
type BallSubmitRequest struct {
	MatchID          ids.MatchID          `json:"matchId"`
	InningsID        ids.InningsID        `json:"inningsId"`
	OverID           ids.OverID           `json:"overId"`
	BallNumber       model.BallNumber     `json:"ballNumber"`
	BowlerID         ids.PlayerID         `json:"bowlerId"`
	StrikerID        ids.PlayerID         `json:"strikerId"`
	NonStrikerID     ids.PlayerID         `json:"nonStrikerId,omitempty"`
	RunsOffBat       int                  `json:"runsOffBat"`
	IsWicket         bool                 `json:"isWicket"`
	Wicket           *model.WicketPayload `json:"wicket,omitempty"`
	IsBoundary       bool                 `json:"isBoundary"`
	BoundaryKind     model.BoundaryKind   `json:"boundaryKind,omitempty"`
	IsLegal          bool                 `json:"isLegal"`
	ExtraKind        model.ExtraKind      `json:"extraKind"`
	ExtraRuns        int                  `json:"extraRuns"`
	ShotKind         string               `json:"shotKind,omitempty"`
	FieldingPosition string               `json:"fieldingPosition,omitempty"`
}

func (b BallSubmitRequest) toPayload() model.BallPayload {
	return model.BallPayload{
		InningsID:        b.InningsID,
		OverID:           b.OverID,
		Number:           b.BallNumber,
		Bowler:           b.BowlerID,
		Striker:          b.StrikerID,
		NonStriker:       b.NonStrikerID,
		RunsOffBat:       b.RunsOffBat,
		IsBoundary:       b.IsBoundary,
		BoundaryKind:     b.BoundaryKind,
		IsLegal:          b.IsLegal,
		ExtraKind:        b.ExtraKind,
		ExtraRuns:        b.ExtraRuns,
		IsWicket:         b.IsWicket,
		Wicket:           b.Wicket,
		ShotKind:         b.ShotKind,
		FieldingPosition: b.FieldingPosition,
	}
}

func (h *Handler) actorFromPath(w http.ResponseWriter, r *http.Request) (*match.Actor, bool) {
	matchID, err := ids.ParseMatchID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("id", "malformed match id"))
		return nil, false
	}
	return h.actorFor(w, matchID)
}

func (h *Handler) actorFor(w http.ResponseWriter, matchID ids.MatchID) (*match.Actor, bool) {
	actor, ok := h.registry.Get(matchID)
	if !ok {
		writeError(w, apperr.NotFoundf("match", matchID.String()))
		return nil, false
	}
	return actor, true
}

// requireScorer resolves callerID's accreditation, failing closed unless it
// is an active Scorer entry on the match roster (§4.7).
func (h *Handler) requireScorer(ctx context.Context, actor *match.Actor, callerID ids.PlayerID) (model.ScorerSide, error) {
	view, err := actor.View(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := view.Match.OfficialEntry(callerID)
	if !ok || entry.Role != model.RoleScorer {
		return "", apperr.Forbidden("caller is not an accredited scorer for this match")
	}
	return entry.Side, nil
}

// requireOfficial resolves callerID's accreditation, failing closed unless
// it is an active Official entry on the match roster (§4.7).
func (h *Handler) requireOfficial(ctx context.Context, actor *match.Actor, callerID ids.PlayerID) error {
	view, err := actor.View(ctx)
	if err != nil {
		return err
	}
	entry, ok := view.Match.OfficialEntry(callerID)
	if !ok || entry.Role != model.RoleOfficial {
		return apperr.Forbidden("caller is not an accredited official for this match")
	}
	return nil
}

func (h *Handler) limiterFor(playerID ids.PlayerID) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()
	lim, ok := h.limiters[playerID]
	if !ok {
		lim = rate.NewLimiter(submitBallRateLimit, submitBallBurst)
		h.limiters[playerID] = lim
	}
	return lim
}

// authenticate extracts and verifies the caller's bearer token (§6
// "Unauthenticated — missing/expired/invalid credential").
func (h *Handler) authenticate(r *http.Request) (ids.PlayerID, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", apperr.Unauth("missing bearer token")
	}
	token := strings.TrimPrefix(header, prefix)
	playerID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		return "", apperr.Unauth("invalid or expired token")
	}
	return playerID, nil
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		telemetry.Metrics.CommandParseError.Inc()
		return apperr.InvalidArg("body", "malformed JSON: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err in the §7 "user-visible shape":
// {code, message, details, correlationId}. The correlation id also appears
// in the paired log line.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internalf("unexpected error", err)
	}
	correlationID := appErr.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	telemetry.Errorf("command error: %v correlationId=%s", appErr, correlationID)

	writeJSON(w, appErr.HTTPStatus(), map[string]any{
		"code":          appErr.Code,
		"message":       appErr.Message,
		"details":       appErr.Details,
		"correlationId": correlationID,
	})
}
