// scoretail connects to a running scoring server's live feed (§4.6) and
// prints each frame as it arrives, grounded on the teacher's inspect_ws
// CLI convention (flag-driven, stdout one-record-per-line).
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8081", "query server host:port")
	matchID := flag.String("match", "", "match id to subscribe to")
	token := flag.String("token", "", "bearer token")
	since := flag.Int64("since", 0, "replay raw events recorded after this sequence number")
	pretty := flag.Bool("pretty", false, "pretty-print each frame's data")
	flag.Parse()

	if *matchID == "" {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/scoretail -match <id> [-token t] [-addr host:port] [-since 0] [-pretty]")
		os.Exit(1)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: fmt.Sprintf("/matches/%s/live", *matchID)}
	q := u.Query()
	if *token != "" {
		q.Set("token", *token)
	}
	if *since > 0 {
		q.Set("since", fmt.Sprintf("%d", *since))
	}
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		status := "?"
		if resp != nil {
			status = resp.Status
		}
		fmt.Fprintf(os.Stderr, "dial %s: %v (status %s)\n", u.String(), err, status)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", u.String())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			return
		}

		var envelope struct {
			Type      string          `json:"type"`
			Timestamp time.Time       `json:"timestamp"`
			Data      json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			fmt.Printf("(unparsable frame: %s)\n", data)
			continue
		}

		dataStr := string(envelope.Data)
		if *pretty {
			var buf bytes.Buffer
			if err := json.Indent(&buf, envelope.Data, "", "  "); err == nil {
				dataStr = buf.String()
			}
		}

		fmt.Printf("--- %s (%s) ---\n%s\n\n", envelope.Type, humanize.Time(envelope.Timestamp), dataStr)
	}
}
