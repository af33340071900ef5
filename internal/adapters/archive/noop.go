// Package archive provides the optional chat-session persistence
// collaborator. The coordination core calls it best-effort and keeps working
// when it is absent or failing.
package archive

import (
	"context"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
)

// Noop discards everything. Used when no database is configured.
type Noop struct{}

var _ core.Archive = Noop{}

func (Noop) SessionStarted(context.Context, domain.SessionID, domain.Profile, domain.Profile, string, string) (core.RecordID, error) {
	return "", nil
}

func (Noop) MessageSent(context.Context, core.RecordID, domain.ParticipantID, string) error {
	return nil
}

func (Noop) SessionEnded(context.Context, core.RecordID, time.Time) error {
	return nil
}
