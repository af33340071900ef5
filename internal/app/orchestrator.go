package app

import (
	"context"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
)

// Orchestrator is what the signaling gateway dispatches into. It composes the
// registry, pool, matchmaker and session manager; every mutation of shared
// state flows through here.
type Orchestrator struct {
	Registry   *Registry
	Pool       *WaitingPool
	Matchmaker *Matchmaker
	Sessions   *SessionManager
	Notifier   *Notifier
}

// NewOrchestrator wires the coordination core. archive and bus are optional
// collaborators; nil disables them.
func NewOrchestrator(archive core.Archive, bus core.FanoutBus) *Orchestrator {
	registry := NewRegistry()
	pool := NewWaitingPool()
	notifier := NewNotifier(registry, bus)
	sessions := NewSessionManager(registry, pool, notifier, archive)
	matchmaker := NewMatchmaker(registry, pool, sessions, notifier, archive)
	return &Orchestrator{
		Registry:   registry,
		Pool:       pool,
		Matchmaker: matchmaker,
		Sessions:   sessions,
		Notifier:   notifier,
	}
}

// Connect registers a fresh participant connection.
func (o *Orchestrator) Connect(conn core.SignalConnection, clientToken string, cancel context.CancelFunc) domain.ParticipantID {
	return o.Registry.Register(conn, clientToken, cancel)
}

// Disconnect cascades a transport loss: session teardown or pool removal
// first, then the registry slot. Both steps are idempotent, so a disconnect
// racing an explicit end_call collapses cleanly.
func (o *Orchestrator) Disconnect(id domain.ParticipantID) {
	o.Matchmaker.Disconnect(id)
}

type Stats struct {
	Connected    int `json:"connected"`
	Searching    int `json:"searching"`
	OpenSessions int `json:"open_sessions"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Connected:    o.Registry.Count(),
		Searching:    o.Pool.Len(),
		OpenSessions: o.Sessions.OpenCount(),
	}
}
