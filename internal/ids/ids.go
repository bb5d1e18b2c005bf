// Package ids defines the opaque 128-bit identifier types used across the
// data model (§3). Every identifier is a UUID rendered as a 36-char
// hyphenated lowercase string on the wire.
package ids

import "github.com/google/uuid"

// ID is the underlying representation shared by every named identifier type.
type ID string

func newID() ID { return ID(uuid.NewString()) }

func (id ID) String() string { return string(id) }

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id == "" }

type (
	MatchID     ID
	PlayerID    ID
	InningsID   ID
	OverID      ID
	BallID      ID
	WicketID    ID
	EventID     ID
	DisputeID   ID
	ConsensusID ID
	ScorerID    ID
)

func NewMatchID() MatchID         { return MatchID(newID()) }
func NewPlayerID() PlayerID       { return PlayerID(newID()) }
func NewInningsID() InningsID     { return InningsID(newID()) }
func NewOverID() OverID           { return OverID(newID()) }
func NewBallID() BallID           { return BallID(newID()) }
func NewWicketID() WicketID       { return WicketID(newID()) }
func NewEventID() EventID         { return EventID(newID()) }
func NewDisputeID() DisputeID     { return DisputeID(newID()) }
func NewConsensusID() ConsensusID { return ConsensusID(newID()) }

func (id MatchID) String() string     { return string(id) }
func (id PlayerID) String() string    { return string(id) }
func (id InningsID) String() string   { return string(id) }
func (id OverID) String() string      { return string(id) }
func (id BallID) String() string      { return string(id) }
func (id WicketID) String() string    { return string(id) }
func (id EventID) String() string     { return string(id) }
func (id DisputeID) String() string   { return string(id) }
func (id ConsensusID) String() string { return string(id) }
func (id ScorerID) String() string    { return string(id) }

func (id MatchID) IsZero() bool     { return id == "" }
func (id PlayerID) IsZero() bool    { return id == "" }
func (id InningsID) IsZero() bool   { return id == "" }
func (id OverID) IsZero() bool      { return id == "" }
func (id BallID) IsZero() bool      { return id == "" }
func (id WicketID) IsZero() bool    { return id == "" }
func (id EventID) IsZero() bool     { return id == "" }
func (id DisputeID) IsZero() bool   { return id == "" }
func (id ConsensusID) IsZero() bool { return id == "" }
func (id ScorerID) IsZero() bool    { return id == "" }

// ParseMatchID validates and normalizes a wire-format identifier.
func ParseMatchID(s string) (MatchID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return MatchID(u.String()), nil
}

// Parse validates s as a UUID and returns it typed as T, any of the named
// identifier types in this package. C7 uses it to validate the innings id in
// the /innings/{id}/batsmen and /innings/{id}/bowler paths; no other
// caller uses it.
func Parse[T ~string](s string) (T, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		var zero T
		return zero, err
	}
	return T(u.String()), nil
}
