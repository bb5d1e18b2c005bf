// Package canon implements the deterministic canonicalBytes encoding used by
// the event store's hash chain (§4.1). Fields are written in a fixed order
// with fixed-width integers and no whitespace, so the same payload always
// hashes to the same bytes regardless of map iteration order or JSON field
// ordering.
package canon

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"livecricket.dev/scoring/internal/ids"
	"livecricket.dev/scoring/internal/model"
)

func putString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func putInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// BallPayloadBytes serializes a BallPayload field-by-field in a fixed
// order. Two payloads with identical field values always produce identical
// bytes; field order is never derived from map/struct reflection.
func BallPayloadBytes(p model.BallPayload) []byte {
	var buf bytes.Buffer

	putString(&buf, p.InningsID.String())
	putString(&buf, p.OverID.String())
	putInt64(&buf, int64(p.Number.Over))
	putInt64(&buf, int64(p.Number.Ball))
	putString(&buf, p.Bowler.String())
	putString(&buf, p.Striker.String())
	putString(&buf, p.NonStriker.String())
	putInt64(&buf, int64(p.RunsOffBat))
	putBool(&buf, p.IsBoundary)
	putString(&buf, string(p.BoundaryKind))
	putBool(&buf, p.IsLegal)
	putString(&buf, string(p.ExtraKind))
	putInt64(&buf, int64(p.ExtraRuns))
	putBool(&buf, p.IsWicket)

	if p.Wicket != nil {
		putBool(&buf, true)
		putString(&buf, string(p.Wicket.Kind))
		putString(&buf, p.Wicket.BatsmanOut.String())
		putString(&buf, p.Wicket.BowlerCredit.String())
		putInt64(&buf, int64(len(p.Wicket.Fielders)))
		for _, f := range p.Wicket.Fielders {
			putString(&buf, f.String())
		}
	} else {
		putBool(&buf, false)
	}

	putString(&buf, p.ShotKind)
	putString(&buf, p.FieldingPosition)
	putString(&buf, p.CorrectsEventID.String())

	// Extensions are sorted by key to keep the encoding deterministic even
	// though the bag itself is a map.
	keys := make([]string, 0, len(p.Extensions))
	for k := range p.Extensions {
		keys = append(keys, k)
	}
	sortStrings(keys)
	putInt64(&buf, int64(len(keys)))
	for _, k := range keys {
		putString(&buf, k)
		putString(&buf, toCanonicalString(p.Extensions[k]))
	}

	return buf.Bytes()
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func toCanonicalString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// EventHashInput bundles the fields that go into an event's hash (§4.1):
// eventHash = H(priorHash || scorerId || eventTimestamp || canonicalBytes(payload))
type EventHashInput struct {
	PriorHash      string
	ScorerID       ids.ScorerID
	EventTimestampUnixNano int64
	PayloadBytes   []byte
}

// Bytes assembles the full pre-image hashed by the event store.
func (in EventHashInput) Bytes() []byte {
	var buf bytes.Buffer
	putString(&buf, in.PriorHash)
	putString(&buf, in.ScorerID.String())
	putInt64(&buf, in.EventTimestampUnixNano)
	buf.Write(in.PayloadBytes)
	return buf.Bytes()
}
