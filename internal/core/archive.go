package core

import (
	"context"
	"time"

	"github.com/dkeye/Roulette/internal/domain"
)

// RecordID is the opaque handle of a persisted chat-session record.
type RecordID string

// Archive persists chat sessions for the surrounding product.
// Every call is best-effort: the caller logs failures and moves on, the
// coordination core never depends on the archive to function.
type Archive interface {
	// SessionStarted opens a record for a fresh pairing and returns its handle.
	// clientA/clientB are the stable client tokens of the two sides, if known.
	SessionStarted(ctx context.Context, id domain.SessionID, a, b domain.Profile, clientA, clientB string) (RecordID, error)
	// MessageSent appends one relayed message to the record.
	MessageSent(ctx context.Context, rec RecordID, sender domain.ParticipantID, text string) error
	// SessionEnded closes the record.
	SessionEnded(ctx context.Context, rec RecordID, endedAt time.Time) error
}
