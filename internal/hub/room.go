package hub

import (
	"sync"

	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/telemetry"
)

// Room is one match's set of live subscribers (§4.6 "room-per-match pub/sub
// fan-out"). All mutation of the subscriber set goes through mu; broadcast
// itself never blocks on a slow subscriber, generalizing the teacher's
// single room-less Server.clients map into one Room per match.
type Room struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	lastBall    model.BallNumber
}

func newRoom() *Room {
	return &Room{subscribers: make(map[*Subscriber]struct{})}
}

func (r *Room) add(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[sub] = struct{}{}
}

func (r *Room) remove(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, sub)
}

func (r *Room) noteBall(n model.BallNumber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastBall.Less(n) {
		r.lastBall = n
	}
}

// broadcast enqueues data to every subscriber, dropping (and evicting) any
// whose send buffer is already at the high-water mark (§4.6: "slow
// subscribers are dropped after exceeding a high-water mark").
func (r *Room) broadcast(data []byte) {
	r.mu.Lock()
	resumeHint := r.lastBall
	var victims []*Subscriber
	for sub := range r.subscribers {
		select {
		case sub.send <- data:
		default:
			victims = append(victims, sub)
			delete(r.subscribers, sub)
		}
	}
	r.mu.Unlock()

	for _, sub := range victims {
		telemetry.Metrics.SubscribersPruned.Inc()
		sub.closeWithResumeHint(resumeHint)
	}
}

func (r *Room) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
