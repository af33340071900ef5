package app

import (
	"context"
	"sync"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type participantEntry struct {
	Conn        core.SignalConnection
	ClientToken string
	State       domain.State
	Session     domain.SessionID
	Cancel      context.CancelFunc
}

// Registry tracks every live participant connection and its matchmaking state.
// It owns participant identity; the waiting pool and the session table only
// hold ParticipantIDs and look connections up here.
type Registry struct {
	mu           sync.RWMutex
	participants map[domain.ParticipantID]*participantEntry
}

func NewRegistry() *Registry {
	return &Registry{participants: make(map[domain.ParticipantID]*participantEntry)}
}

// Register mints a fresh ParticipantID for a new connection. clientToken is
// the stable browser token, kept only as a hint for the archive.
func (r *Registry) Register(conn core.SignalConnection, clientToken string, cancel context.CancelFunc) domain.ParticipantID {
	id := domain.ParticipantID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[id] = &participantEntry{
		Conn:        conn,
		ClientToken: clientToken,
		State:       domain.StateIdle,
		Cancel:      cancel,
	}
	log.Info().Str("module", "app.registry").Str("pid", string(id)).Msg("registered participant")
	return id
}

// Unregister releases the participant's slot. Idempotent: disconnect
// notifications race with end-call processing, a second call is a no-op.
func (r *Registry) Unregister(id domain.ParticipantID) bool {
	r.mu.Lock()
	e, ok := r.participants[id]
	delete(r.participants, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("pid", string(id)).Msg("unregistered participant")
	return true
}

// Conn returns the live signaling connection, or false if the participant
// is gone.
func (r *Registry) Conn(id domain.ParticipantID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) ClientToken(id domain.ParticipantID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[id]; ok {
		return e.ClientToken
	}
	return ""
}

func (r *Registry) State(id domain.ParticipantID) (domain.State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[id]; ok {
		return e.State, true
	}
	return domain.StateIdle, false
}

func (r *Registry) SetState(id domain.ParticipantID, s domain.State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.participants[id]
	if !ok {
		return false
	}
	e.State = s
	return true
}

// BindSession records the participant's current session as a lookup key.
// The session itself is owned by the session manager, never by the registry.
func (r *Registry) BindSession(id domain.ParticipantID, sid domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.participants[id]
	if !ok {
		return false
	}
	e.State = domain.StatePaired
	e.Session = sid
	log.Info().Str("module", "app.registry").Str("pid", string(id)).Str("session", string(sid)).Msg("bound session")
	return true
}

// ClearSession drops the session key and returns the participant to idle.
func (r *Registry) ClearSession(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.participants[id]; ok {
		e.Session = ""
		e.State = domain.StateIdle
	}
}

// SessionOf returns the participant's current open session key, if any.
func (r *Registry) SessionOf(id domain.ParticipantID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.participants[id]
	if !ok || e.Session == "" {
		return "", false
	}
	return e.Session, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
