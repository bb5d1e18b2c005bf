// Package hub implements C6: per-match WebSocket rooms that stream
// validated state transitions to spectators, generalizing the teacher's
// single room-less internal/fanout/server.go into a room-per-match hub with
// snapshot-on-attach and high-water-mark backpressure dropping.
package hub

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"livecricket.dev/scoring/internal/auth"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/match"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/telemetry"
)

// Hub owns every match's Room and implements match.Broadcaster, so every
// match actor publishes through the same narrow interface regardless of
// whether a spectator is currently attached.
type Hub struct {
	mu       sync.Mutex
	rooms    map[ids.MatchID]*Room
	registry *match.Registry
	store    *eventstore.Store
	verifier auth.Verifier
}

// NewHub constructs a hub backed by store (for reconnection replay) and
// verifier (§4.7 WS authentication). SetRegistry must be called before
// HandleWS serves traffic; it is split out because the match registry
// itself depends on this hub as its Broadcaster (§5/§4.6's mutual
// dependency is resolved at process wiring time in cmd/scoringserver).
func NewHub(store *eventstore.Store, verifier auth.Verifier) *Hub {
	return &Hub{
		rooms:    make(map[ids.MatchID]*Room),
		store:    store,
		verifier: verifier,
	}
}

// SetRegistry wires the match registry used for ConnectionEstablished
// snapshots. Call once at startup, before accepting connections.
func (h *Hub) SetRegistry(registry *match.Registry) {
	h.registry = registry
}

// RegisterRoutes wires the subscription endpoint onto mux.
func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /matches/{id}/live", h.HandleWS)
}

func (h *Hub) getOrCreateRoom(matchID ids.MatchID) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[matchID]
	if !ok {
		r = newRoom()
		h.rooms[matchID] = r
	}
	return r
}

// Publish implements match.Broadcaster: every committed state transition
// reaches its match's room here, regardless of caller.
func (h *Hub) Publish(matchID ids.MatchID, kind string, data any) {
	room := h.getOrCreateRoom(matchID)

	if kind == "BallBowled" {
		if m, ok := data.(map[string]any); ok {
			if ball, ok := m["ball"].(model.Ball); ok {
				room.noteBall(ball.Number)
			}
		}
	}

	env, err := marshalEnvelope(kind, data)
	if err != nil {
		telemetry.Warnf("hub: marshal error kind=%s matchId=%s: %v", kind, matchID, err)
		return
	}
	room.broadcast(env)
}

// HandleWS upgrades a spectator connection at /matches/{id}/live (§4.7),
// authenticates it, sends the ConnectionEstablished snapshot, optionally
// replays events since a client-supplied sequence number, then hands the
// connection to its read/write pumps for the rest of its life.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	matchID, err := ids.ParseMatchID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	actor, ok := h.registry.Get(matchID)
	if !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		telemetry.Warnf("hub: upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token := r.URL.Query().Get("token")
	playerID, err := h.verifier.Verify(ctx, token)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(1008, "invalid token"),
			time.Now().Add(writeDeadline))
		conn.Close()
		return
	}

	sub := newSubscriber(matchID, playerID, conn)
	room := h.getOrCreateRoom(matchID)
	room.add(sub)
	telemetry.Metrics.ActiveSubscribers.Inc()

	go sub.writePump(func() {
		room.remove(sub)
		telemetry.Metrics.ActiveSubscribers.Dec()
	})
	go sub.readPump()

	if view, err := actor.View(ctx); err == nil {
		if env, mErr := marshalEnvelope("ConnectionEstablished", view); mErr == nil {
			select {
			case sub.send <- env:
			default:
			}
		}
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		if since, convErr := strconv.ParseInt(sinceStr, 10, 64); convErr == nil {
			h.replaySince(sub, matchID, since)
		}
	}
}

// replaySince re-sends every raw event recorded after since as a
// replay-flagged BallBowled frame, so a reconnecting client's timeline has
// no gap; the authoritative aggregate state is already covered by the
// ConnectionEstablished snapshot sent moments earlier.
func (h *Hub) replaySince(sub *Subscriber, matchID ids.MatchID, since int64) {
	events, err := h.store.ReadRange(matchID, since+1, -1)
	if err != nil {
		telemetry.Warnf("hub: replay read failed matchId=%s: %v", matchID, err)
		return
	}
	for _, e := range events {
		env, err := marshalEnvelope("BallBowled", map[string]any{
			"ball":   e.Payload,
			"seq":    e.SequenceNumber,
			"replay": true,
		})
		if err != nil {
			continue
		}
		select {
		case sub.send <- env:
		default:
			return
		}
	}
}
