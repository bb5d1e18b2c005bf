// Package eventstore implements C1: the append-only, hash-chained event log.
// Persistence follows the teacher's overturn store (modernc.org/sqlite,
// WAL mode, single-writer sql.DB) generalized from a side-table of
// odds-context rows to the authoritative, per-match event chain.
package eventstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"livecricket.dev/scoring/internal/canon"
	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

// Store is the append-only event log for every match. Appends are
// serialized per match (§4.1, §5): matchLocks holds one mutex per match so
// priorHash/sequenceNumber allocation and the write are atomic together,
// without taking a single process-wide lock across unrelated matches.
type Store struct {
	db *sql.DB

	mu         sync.Mutex
	matchLocks map[ids.MatchID]*sync.Mutex
}

// Open opens (creating if absent) the event log database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create event store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, matchLocks: make(map[ids.MatchID]*sync.Mutex)}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	match_id        TEXT    NOT NULL,
	sequence_number  INTEGER NOT NULL,
	prior_hash      TEXT    NOT NULL,
	event_hash      TEXT    NOT NULL,
	scorer_id       TEXT    NOT NULL,
	scorer_side     TEXT    NOT NULL,
	kind            TEXT    NOT NULL,
	innings_id      TEXT,
	ball_id         TEXT,
	payload_json    TEXT    NOT NULL,
	signature       TEXT    NOT NULL,
	event_timestamp TEXT    NOT NULL,
	PRIMARY KEY (match_id, sequence_number)
);
CREATE INDEX IF NOT EXISTS idx_events_match_seq ON events(match_id, sequence_number ASC);
`

func (s *Store) lockFor(matchID ids.MatchID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.matchLocks[matchID]
	if !ok {
		l = &sync.Mutex{}
		s.matchLocks[matchID] = l
	}
	return l
}

// AppendInput is everything the caller supplies; Store computes
// sequenceNumber, priorHash, and eventHash.
type AppendInput struct {
	MatchID    ids.MatchID
	InningsID  ids.InningsID
	BallID     ids.BallID
	ScorerID   ids.ScorerID
	ScorerSide model.ScorerSide
	Kind       model.EventKind
	Payload    model.BallPayload
	Signature  string
	Now        time.Time
}

// Append writes one event to the log under the match's append lock,
// returning its allocated sequence number and hash (§4.1 contract).
func (s *Store) Append(in AppendInput) (int64, string, error) {
	lock := s.lockFor(in.MatchID)
	lock.Lock()
	defer lock.Unlock()

	tail, err := s.tailLocked(in.MatchID)
	if err != nil {
		return 0, "", fmt.Errorf("read tail: %w", err)
	}

	priorHash := model.SentinelPriorHash
	seq := int64(1)
	if tail != nil {
		priorHash = tail.EventHash
		seq = tail.SequenceNumber + 1
	}

	payloadBytes := canon.BallPayloadBytes(in.Payload)
	hashInput := canon.EventHashInput{
		PriorHash:              priorHash,
		ScorerID:               in.ScorerID,
		EventTimestampUnixNano: in.Now.UnixNano(),
		PayloadBytes:           payloadBytes,
	}
	sum := sha256.Sum256(hashInput.Bytes())
	eventHash := hex.EncodeToString(sum[:])

	payloadJSON, err := json.Marshal(in.Payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO events (
			match_id, sequence_number, prior_hash, event_hash,
			scorer_id, scorer_side, kind, innings_id, ball_id,
			payload_json, signature, event_timestamp
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		string(in.MatchID), seq, priorHash, eventHash,
		string(in.ScorerID), string(in.ScorerSide), string(in.Kind),
		string(in.InningsID), string(in.BallID),
		string(payloadJSON), in.Signature, in.Now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, "", fmt.Errorf("insert event: %w", err)
	}

	return seq, eventHash, nil
}

type tailRow struct {
	SequenceNumber int64
	EventHash      string
}

func (s *Store) tailLocked(matchID ids.MatchID) (*tailRow, error) {
	row := s.db.QueryRow(
		`SELECT sequence_number, event_hash FROM events
		 WHERE match_id = ? ORDER BY sequence_number DESC LIMIT 1`,
		string(matchID),
	)
	var t tailRow
	if err := row.Scan(&t.SequenceNumber, &t.EventHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ReadRange returns events [fromSeq, toSeq] (inclusive) in sequence order.
// toSeq <= 0 means "through the current tail".
func (s *Store) ReadRange(matchID ids.MatchID, fromSeq, toSeq int64) ([]model.ScoringEvent, error) {
	var rows *sql.Rows
	var err error
	if toSeq > 0 {
		rows, err = s.db.Query(
			`SELECT sequence_number, prior_hash, event_hash, scorer_id, scorer_side,
			        kind, innings_id, ball_id, payload_json, signature, event_timestamp
			 FROM events WHERE match_id = ? AND sequence_number BETWEEN ? AND ?
			 ORDER BY sequence_number ASC`,
			string(matchID), fromSeq, toSeq,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT sequence_number, prior_hash, event_hash, scorer_id, scorer_side,
			        kind, innings_id, ball_id, payload_json, signature, event_timestamp
			 FROM events WHERE match_id = ? AND sequence_number >= ?
			 ORDER BY sequence_number ASC`,
			string(matchID), fromSeq,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.ScoringEvent
	for rows.Next() {
		var (
			seq                                            int64
			priorHash, eventHash, scorerID, scorerSide      string
			kind, inningsID, ballID, payloadJSON, signature string
			ts                                              string
		)
		if err := rows.Scan(&seq, &priorHash, &eventHash, &scorerID, &scorerSide,
			&kind, &inningsID, &ballID, &payloadJSON, &signature, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		var payload model.BallPayload
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload at seq %d: %w", seq, err)
		}
		eventTime, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp at seq %d: %w", seq, err)
		}

		out = append(out, model.ScoringEvent{
			MatchID:        matchID,
			InningsID:      ids.InningsID(inningsID),
			BallID:         ids.BallID(ballID),
			ScorerID:       ids.ScorerID(scorerID),
			ScorerSide:     model.ScorerSide(scorerSide),
			Kind:           model.EventKind(kind),
			Payload:        payload,
			PriorHash:      priorHash,
			EventHash:      eventHash,
			Signature:      signature,
			EventTimestamp: eventTime,
			SequenceNumber: seq,
		})
	}
	return out, rows.Err()
}

// VerifyChain re-hashes the log for matchID and compares it against the
// stored event_hash at each step, returning the sequence number of the
// first break (0 if the chain is intact).
func (s *Store) VerifyChain(matchID ids.MatchID) (ok bool, brokenAtSeq int64, err error) {
	events, err := s.ReadRange(matchID, 1, -1)
	if err != nil {
		return false, 0, err
	}

	prior := model.SentinelPriorHash
	for _, e := range events {
		if e.PriorHash != prior {
			return false, e.SequenceNumber, nil
		}
		payloadBytes := canon.BallPayloadBytes(e.Payload)
		hashInput := canon.EventHashInput{
			PriorHash:              e.PriorHash,
			ScorerID:               e.ScorerID,
			EventTimestampUnixNano: e.EventTimestamp.UnixNano(),
			PayloadBytes:           payloadBytes,
		}
		sum := sha256.Sum256(hashInput.Bytes())
		recomputed := hex.EncodeToString(sum[:])
		if recomputed != e.EventHash {
			return false, e.SequenceNumber, nil
		}
		prior = e.EventHash
	}
	return true, 0, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
