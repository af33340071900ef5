package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/rs/zerolog/log"
)

const archiveTimeout = 3 * time.Second

type sessionRecord struct {
	session *domain.Session
	record  core.RecordID // archive handle, empty when archiving is off
}

// SessionManager exclusively owns the table of open sessions. A session is
// created by the matchmaker, handed off through Adopt, and closed exactly once:
// close removes it from the table, so a racing second close finds nothing and
// no-ops. Notifications go out after the table lock is released.
type SessionManager struct {
	mu   sync.Mutex
	open map[domain.SessionID]*sessionRecord

	registry *Registry
	pool     *WaitingPool
	notifier *Notifier
	archive  core.Archive // optional
}

func NewSessionManager(registry *Registry, pool *WaitingPool, notifier *Notifier, archive core.Archive) *SessionManager {
	return &SessionManager{
		open:     make(map[domain.SessionID]*sessionRecord),
		registry: registry,
		pool:     pool,
		notifier: notifier,
		archive:  archive,
	}
}

// Adopt takes ownership of a freshly created session and binds both
// participants to it.
func (m *SessionManager) Adopt(s *domain.Session, rec core.RecordID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[s.ID] = &sessionRecord{session: s, record: rec}
	m.registry.BindSession(s.Initiator, s.ID)
	m.registry.BindSession(s.Responder, s.ID)
	log.Info().Str("module", "app.sessions").
		Str("session", string(s.ID)).
		Str("initiator", string(s.Initiator)).
		Str("responder", string(s.Responder)).
		Msg("session opened")
}

// RelayMessage delivers text to the sender's paired counterpart. A sender
// without an open session is a protocol no-op, not an error: stale sends race
// with teardown all the time. The archive append is best-effort and runs after
// delivery so a slow or failing archive never delays the counterpart.
func (m *SessionManager) RelayMessage(from domain.ParticipantID, text string) {
	m.mu.Lock()
	rec, other, ok := m.lookupLocked(from)
	m.mu.Unlock()
	if !ok {
		log.Debug().Str("module", "app.sessions").Str("pid", string(from)).Msg("relay without open session")
		return
	}
	m.notifier.Send(other, core.NewMessageReceived(text))
	m.archiveMessage(rec.record, from, text)
}

// EndCall closes the caller's session voluntarily. The counterpart gets a
// call_ended notice and both sides return to idle; resuming search is a fresh
// explicit request. Idempotent when the session is already closed.
func (m *SessionManager) EndCall(by domain.ParticipantID) {
	rec, other, ok := m.closeByMember(by)
	if !ok {
		log.Debug().Str("module", "app.sessions").Str("pid", string(by)).Msg("end_call without open session")
		return
	}
	log.Info().Str("module", "app.sessions").Str("session", string(rec.session.ID)).Str("by", string(by)).Msg("call ended")
	m.notifier.Send(other, core.NewCallEnded())
	m.archiveEnded(rec.record)
}

// HandleDisconnect tears down whatever the participant holds: an open session
// (counterpart gets peer_disconnected, distinct from a voluntary end), a
// waiting-pool entry, or nothing at all. Safe in any lifecycle phase.
func (m *SessionManager) HandleDisconnect(id domain.ParticipantID) {
	if rec, other, ok := m.closeByMember(id); ok {
		log.Info().Str("module", "app.sessions").Str("session", string(rec.session.ID)).Str("pid", string(id)).Msg("session closed on disconnect")
		m.notifier.Send(other, core.NewPeerDisconnected())
		m.archiveEnded(rec.record)
		return
	}
	if m.pool.Remove(id) {
		log.Info().Str("module", "app.sessions").Str("pid", string(id)).Msg("removed from waiting pool on disconnect")
	}
}

func (m *SessionManager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// lookupLocked resolves the member's open session and counterpart.
func (m *SessionManager) lookupLocked(member domain.ParticipantID) (*sessionRecord, domain.ParticipantID, bool) {
	sid, ok := m.registry.SessionOf(member)
	if !ok {
		return nil, "", false
	}
	rec, ok := m.open[sid]
	if !ok {
		return nil, "", false
	}
	other, ok := rec.session.Other(member)
	if !ok {
		return nil, "", false
	}
	return rec, other, true
}

// closeByMember removes the member's session from the open table and unbinds
// both sides. Exactly one caller wins a close race; the loser gets ok=false.
func (m *SessionManager) closeByMember(member domain.ParticipantID) (*sessionRecord, domain.ParticipantID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, other, ok := m.lookupLocked(member)
	if !ok {
		return nil, "", false
	}
	delete(m.open, rec.session.ID)
	m.registry.ClearSession(member)
	m.registry.ClearSession(other)
	return rec, other, true
}

// archiveMessage appends off the caller's goroutine: a slow archive must not
// stall the sender's read pump between events.
func (m *SessionManager) archiveMessage(rec core.RecordID, sender domain.ParticipantID, text string) {
	if m.archive == nil || rec == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := m.archive.MessageSent(ctx, rec, sender, text); err != nil {
			log.Warn().Err(err).Str("module", "app.sessions").Str("record", string(rec)).Msg("archive message failed")
		}
	}()
}

// archiveEnded runs off the caller's goroutine too: teardown is invoked under
// the pairing mutex and must never wait on the archive.
func (m *SessionManager) archiveEnded(rec core.RecordID) {
	if m.archive == nil || rec == "" {
		return
	}
	endedAt := time.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := m.archive.SessionEnded(ctx, rec, endedAt); err != nil {
			log.Warn().Err(err).Str("module", "app.sessions").Str("record", string(rec)).Msg("archive session end failed")
		}
	}()
}
