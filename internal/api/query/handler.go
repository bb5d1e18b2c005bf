// Package query implements C8: read-only handlers serving derived
// snapshots and event replays to clients (§4.7/§4.8), sharing the command
// API's net/http ServeMux method-pattern routing convention.
package query

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/match"
	"livecricket.dev/scoring/internal/telemetry"
)

const queryDeadline = 5 * time.Second

// Handler is C8, the query-side HTTP boundary.
type Handler struct {
	registry *match.Registry
	store    *eventstore.Store
}

// NewHandler constructs C8 against registry (C5, for live derived state)
// and store (C1, for raw event-log replay).
func NewHandler(registry *match.Registry, store *eventstore.Store) *Handler {
	return &Handler{registry: registry, store: store}
}

// RegisterRoutes wires the query endpoints onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /matches/{id}", h.getMatch)
	mux.HandleFunc("GET /matches/{id}/innings", h.getInnings)
	mux.HandleFunc("GET /matches/{id}/balls", h.getBalls)
	mux.HandleFunc("GET /matches/{id}/disputes", h.getDisputes)
	mux.HandleFunc("GET /matches/{id}/events", h.getEventLog)
}

// getMatch handles GET /matches/{id}.
func (h *Handler) getMatch(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.QueriesReceived.Inc()
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryDeadline)
	defer cancel()
	view, err := actor.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Match)
}

// getInnings handles GET /matches/{id}/innings?current=true or
// ?inningsId=<id>. Only "current" is served today since the actor retains
// one live innings snapshot at a time; a historical-innings lookup would
// need a replayed InningsSnapshot, not an index this API builds for now.
func (h *Handler) getInnings(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.QueriesReceived.Inc()
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryDeadline)
	defer cancel()
	view, err := actor.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if view.CurrentInnings == nil {
		writeError(w, apperr.NotFoundf("innings", "current"))
		return
	}
	writeJSON(w, http.StatusOK, view.CurrentInnings)
}

// getBalls handles GET /matches/{id}/balls?from=<n>&to=<n>, a 0-based index
// range (inclusive) over the current innings' canonical commit order.
func (h *Handler) getBalls(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.QueriesReceived.Inc()
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryDeadline)
	defer cancel()
	view, err := actor.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if view.CurrentInnings == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	balls := view.CurrentInnings.Balls
	from := parseIntParam(r, "from", 0)
	to := parseIntParam(r, "to", len(balls)-1)
	if from < 0 {
		from = 0
	}
	if to >= len(balls) {
		to = len(balls) - 1
	}
	if from > to || len(balls) == 0 {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, balls[from:to+1])
}

// getDisputes handles GET /matches/{id}/disputes (open and resolved).
func (h *Handler) getDisputes(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.QueriesReceived.Inc()
	actor, ok := h.actorFromPath(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), queryDeadline)
	defer cancel()
	disputes, err := actor.ListDisputes(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, disputes)
}

// getEventLog handles GET /matches/{id}/events?from=<seq>&to=<seq>, serving
// the raw append-only log directly from C1 (§4.8).
func (h *Handler) getEventLog(w http.ResponseWriter, r *http.Request) {
	telemetry.Metrics.QueriesReceived.Inc()
	matchID, err := ids.ParseMatchID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("id", "malformed match id"))
		return
	}

	from := int64(parseIntParam(r, "from", 0))
	to := int64(parseIntParam(r, "to", -1))
	events, err := h.store.ReadRange(matchID, from, to)
	if err != nil {
		writeError(w, apperr.Internalf("read event log", err))
		return
	}

	out := make([]map[string]any, len(events))
	for i, e := range events {
		out[i] = map[string]any{
			"sequenceNumber": e.SequenceNumber,
			"scorerId":       e.ScorerID,
			"scorerSide":     e.ScorerSide,
			"kind":           e.Kind,
			"payload":        e.Payload,
			"eventHash":      e.EventHash,
			"eventTimestamp": e.EventTimestamp,
			"details": map[string]any{
				"age": humanize.Time(e.EventTimestamp),
			},
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) actorFromPath(w http.ResponseWriter, r *http.Request) (*match.Actor, bool) {
	matchID, err := ids.ParseMatchID(r.PathValue("id"))
	if err != nil {
		writeError(w, apperr.InvalidArg("id", "malformed match id"))
		return nil, false
	}
	actor, ok := h.registry.Get(matchID)
	if !ok {
		writeError(w, apperr.NotFoundf("match", matchID.String()))
		return nil, false
	}
	return actor, true
}

func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
