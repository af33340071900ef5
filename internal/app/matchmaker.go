package app

import (
	"context"
	"sync"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/rs/zerolog/log"
)

// MatchResult is the outcome of one find-match request.
// When Enqueued is false the requester was paired: Session is the fresh
// pairing, Remote the counterpart's profile and IsInitiator the requester's
// own role in the handshake.
type MatchResult struct {
	Enqueued    bool
	Session     *domain.Session
	Remote      domain.Profile
	IsInitiator bool
}

// Matchmaker pairs searchers first-available, oldest first. Profile attributes
// never influence selection, they only travel into match notices.
//
// Role rule: the side dequeued from the pool becomes the initiator of the
// peer-to-peer handshake, the fresh requester the responder. The rule is
// arbitrary but fixed, so both sides agree without negotiation.
//
// All pairing decisions are serialized by mu, which keeps the evict/dequeue/
// adopt sequence atomic and makes double-pairing impossible.
type Matchmaker struct {
	mu sync.Mutex

	registry *Registry
	pool     *WaitingPool
	sessions *SessionManager
	notifier *Notifier
	archive  core.Archive // optional
}

func NewMatchmaker(registry *Registry, pool *WaitingPool, sessions *SessionManager, notifier *Notifier, archive core.Archive) *Matchmaker {
	return &Matchmaker{
		registry: registry,
		pool:     pool,
		sessions: sessions,
		notifier: notifier,
		archive:  archive,
	}
}

// RequestMatch either pairs the requester with the oldest waiting searcher or
// enqueues it. A repeat request from the same participant replaces its stale
// pool entry, so flaky clients can retransmit freely. Candidates that
// disconnected between enqueue and dequeue are discarded and the search
// retried until the pool runs dry.
//
// The dequeued candidate is notified here; the caller fans the returned
// result out to the requester.
func (m *Matchmaker) RequestMatch(id domain.ParticipantID, profile domain.Profile) MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A participant holds at most one open session. Searching again while
	// paired implicitly hangs up first, so the old counterpart is notified
	// and unbound before this side can be handed to anyone else.
	if st, _ := m.registry.State(id); st == domain.StatePaired {
		log.Info().Str("module", "app.matchmaker").Str("pid", string(id)).Msg("find_match while paired, ending current call")
		m.sessions.EndCall(id)
	}

	m.pool.Remove(id)

	for {
		cand, ok := m.pool.DequeueAny(id)
		if !ok {
			m.pool.Enqueue(id, profile)
			m.registry.SetState(id, domain.StateSearching)
			log.Info().Str("module", "app.matchmaker").Str("pid", string(id)).Int("pool", m.pool.Len()).Msg("enqueued searcher")
			return MatchResult{Enqueued: true}
		}
		if _, live := m.registry.Conn(cand.Participant); !live {
			log.Warn().Str("module", "app.matchmaker").Str("pid", string(cand.Participant)).Msg("discarded stale pool entry")
			continue
		}
		if st, _ := m.registry.State(cand.Participant); st != domain.StateSearching {
			log.Warn().Str("module", "app.matchmaker").Str("pid", string(cand.Participant)).Str("state", st.String()).Msg("discarded non-searching pool entry")
			continue
		}

		sess := domain.NewSession(cand.Participant, id)
		rec := m.startArchive(sess, cand.Profile, profile)
		m.sessions.Adopt(sess, rec)
		log.Info().Str("module", "app.matchmaker").
			Str("session", string(sess.ID)).
			Str("initiator", string(cand.Participant)).
			Str("responder", string(id)).
			Msg("matched")

		// The waiting side learns the requester's profile and opens the call.
		m.notifier.Send(cand.Participant, core.NewMatchFound(profile, true))
		return MatchResult{Session: sess, Remote: cand.Profile, IsInitiator: false}
	}
}

// Disconnect runs the teardown cascade under the pairing mutex. Serializing
// it with RequestMatch closes the window where a candidate disconnects after
// the liveness check but before its session is adopted: the cascade either
// runs before pairing (the dequeue retry discards the dead entry) or after it
// (the open session is found and closed normally).
func (m *Matchmaker) Disconnect(id domain.ParticipantID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.HandleDisconnect(id)
	m.registry.Unregister(id)
}

func (m *Matchmaker) startArchive(sess *domain.Session, initiator, responder domain.Profile) core.RecordID {
	if m.archive == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	rec, err := m.archive.SessionStarted(ctx, sess.ID, initiator, responder,
		m.registry.ClientToken(sess.Initiator), m.registry.ClientToken(sess.Responder))
	if err != nil {
		log.Warn().Err(err).Str("module", "app.matchmaker").Str("session", string(sess.ID)).Msg("archive session start failed")
		return ""
	}
	return rec
}
