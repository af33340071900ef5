package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// Session is one pairing between exactly two participants. The initiator is
// the side that opens the peer-to-peer media handshake. The struct itself is
// immutable; open/closed bookkeeping belongs to the session manager that owns it.
type Session struct {
	ID        SessionID
	Initiator ParticipantID
	Responder ParticipantID
	CreatedAt time.Time
}

// NewSession avoids raw literals in callers and keeps ID minting in one place.
func NewSession(initiator, responder ParticipantID) *Session {
	return &Session{
		ID:        SessionID(uuid.NewString()),
		Initiator: initiator,
		Responder: responder,
		CreatedAt: time.Now(),
	}
}

// Has reports whether id is one of the two members.
func (s *Session) Has(id ParticipantID) bool {
	return s.Initiator == id || s.Responder == id
}

// Other returns the counterpart of id, or false if id is not a member.
func (s *Session) Other(id ParticipantID) (ParticipantID, bool) {
	switch id {
	case s.Initiator:
		return s.Responder, true
	case s.Responder:
		return s.Initiator, true
	default:
		return "", false
	}
}
