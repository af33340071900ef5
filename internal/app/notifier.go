package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 3 * time.Second

// Notifier routes outbound notices: to the local connection when the target
// is registered here, through the fan-out bus when it lives on another
// process. Delivery is fire-and-forget; TrySend never blocks, so callers may
// notify while holding their own coordination locks.
type Notifier struct {
	registry *Registry
	bus      core.FanoutBus // optional
}

func NewNotifier(registry *Registry, bus core.FanoutBus) *Notifier {
	return &Notifier{registry: registry, bus: bus}
}

// Send marshals v and delivers it to the target participant.
// A dead target is not an error: races between teardown and notification are
// expected, the notice is simply dropped.
func (n *Notifier) Send(target domain.ParticipantID, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.notifier").Msg("marshal notice")
		return
	}
	if conn, ok := n.registry.Conn(target); ok {
		if err := conn.TrySend(payload); err != nil {
			log.Warn().Err(err).Str("module", "app.notifier").Str("pid", string(target)).Msg("local send failed")
		}
		return
	}
	if n.bus == nil {
		log.Debug().Str("module", "app.notifier").Str("pid", string(target)).Msg("dropped notice for unknown participant")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.bus.Publish(ctx, target, payload); err != nil {
		log.Warn().Err(err).Str("module", "app.notifier").Str("pid", string(target)).Msg("bus publish failed")
	}
}

// DeliverLocal hands a bus-received notice to the target's connection if this
// process holds it. Other processes' subscribers drop it the same way.
func (n *Notifier) DeliverLocal(target domain.ParticipantID, payload []byte) {
	conn, ok := n.registry.Conn(target)
	if !ok {
		return
	}
	if err := conn.TrySend(payload); err != nil {
		log.Warn().Err(err).Str("module", "app.notifier").Str("pid", string(target)).Msg("bus delivery failed")
	}
}
