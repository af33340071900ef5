package core

import (
	"context"

	"github.com/dkeye/Roulette/internal/domain"
)

// FanoutBus carries notices between server processes. When a notice targets a
// participant connected to another process, the local process publishes it and
// the process holding the connection delivers it. Optional; a single-process
// deployment runs without one.
type FanoutBus interface {
	Publish(ctx context.Context, target domain.ParticipantID, payload []byte) error
	// Subscribe blocks, invoking deliver for every published notice until ctx
	// is canceled. deliver must drop notices for participants it does not hold.
	Subscribe(ctx context.Context, deliver func(target domain.ParticipantID, payload []byte)) error
	Close() error
}
