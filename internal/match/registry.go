package match

import (
	"sync"

	"livecricket.dev/scoring/internal/apperr"
	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// Registry is a thread-safe map of all live match actors, generalizing the
// teacher's GameStateStore (keyed by (sport, gameId)) to a single-sport
// keyspace of match identifiers. Registry's mutex protects only the map
// itself; each Actor serializes its own state through its inbox.
type Registry struct {
	mu     sync.RWMutex
	actors map[ids.MatchID]*Actor

	store       *eventstore.Store
	consensus   *consensus.Engine
	held        *consensus.HeldBuffer
	broadcaster Broadcaster
}

// NewRegistry constructs an empty registry sharing one event store and
// consensus engine across every match actor it creates.
func NewRegistry(store *eventstore.Store, engine *consensus.Engine, held *consensus.HeldBuffer, broadcaster Broadcaster) *Registry {
	return &Registry{
		actors:      make(map[ids.MatchID]*Actor),
		store:       store,
		consensus:   engine,
		held:        held,
		broadcaster: broadcaster,
	}
}

// Create starts a new actor for m and registers it. Returns an error if a
// match with this ID is already registered.
func (r *Registry) Create(m model.Match) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actors[m.ID]; exists {
		return nil, apperr.Conflictf("match already registered").WithDetail("matchId", string(m.ID))
	}
	a := NewActor(m, r.store, r.consensus, r.held, r.broadcaster)
	r.actors[m.ID] = a
	return a, nil
}

// Get returns the actor for matchID, if registered.
func (r *Registry) Get(matchID ids.MatchID) (*Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[matchID]
	return a, ok
}

// Store returns the event store shared by every actor in this registry,
// used by archival and event-log query code that needs to read raw events
// outside of any one actor's goroutine.
func (r *Registry) Store() *eventstore.Store {
	return r.store
}

// All returns a snapshot of every registered actor, safe to iterate after
// the lock is released (used by the periodic Sweep driver in cmd/scoringserver).
func (r *Registry) All() []*Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a)
	}
	return out
}

// Remove unregisters matchID and shuts down its actor goroutine.
func (r *Registry) Remove(matchID ids.MatchID) {
	r.mu.Lock()
	a, ok := r.actors[matchID]
	delete(r.actors, matchID)
	r.mu.Unlock()

	if ok {
		a.Close()
	}
}

// Count returns the number of live match actors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actors)
}
