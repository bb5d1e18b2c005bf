package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"livecricket.dev/scoring/internal/ids"
)

const (
	highWaterMark = 256
	writeDeadline = 10 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Subscriber is one live WebSocket connection attached to a match's room,
// generalizing the teacher's sportClient (internal/fanout/server.go) from a
// sport-keyed connection to a match-keyed one.
type Subscriber struct {
	matchID  ids.MatchID
	playerID ids.PlayerID
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
}

func newSubscriber(matchID ids.MatchID, playerID ids.PlayerID, conn *websocket.Conn) *Subscriber {
	return &Subscriber{
		matchID:  matchID,
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, highWaterMark),
		done:     make(chan struct{}),
	}
}

// writePump drains send and writes to the connection. It owns connection
// teardown: on exit it runs onClose (removing the subscriber from its room)
// and closes the socket.
func (s *Subscriber) writePump(onClose func()) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		onClose()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive via pong handling and answers the
// client→server "ping"/"close" text commands (§4.7); a spectator connection
// never sends scoring payloads.
func (s *Subscriber) readPump() {
	defer close(s.done)

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		switch string(msg) {
		case "ping":
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			s.conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		case "close":
			return
		}
	}
}

// closeWithResumeHint evicts a slow subscriber (§4.6 "receive a close frame
// with a resume hint"): it writes an Error envelope whose resumeHint is the
// latest committed ball number, then a 1013 close frame. The hint is a ball
// number, not the event sequence number that ?since=<seq> takes.
func (s *Subscriber) closeWithResumeHint(hint any) {
	if env, err := marshalEnvelope("Error", map[string]any{
		"reason":     "slow consumer",
		"resumeHint": hint,
	}); err == nil {
		s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		s.conn.WriteMessage(websocket.TextMessage, env)
	}
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(1013, "slow consumer"),
		time.Now().Add(writeDeadline))
	s.conn.Close()
}
