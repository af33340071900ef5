package app

import (
	"sync"
	"time"

	"github.com/dkeye/Roulette/internal/domain"
)

// WaitingEntry is one participant's search intent. The profile is a snapshot
// taken at enqueue time; it is carried only into match notifications, matching
// is attribute-blind.
type WaitingEntry struct {
	Participant domain.ParticipantID
	Profile     domain.Profile
	EnqueuedAt  time.Time
}

// WaitingPool is the FIFO of participants currently seeking a match.
// Oldest-first selection keeps pairing fair and deterministic.
type WaitingPool struct {
	mu      sync.Mutex
	entries []WaitingEntry
}

func NewWaitingPool() *WaitingPool {
	return &WaitingPool{}
}

// Enqueue appends a fresh entry, replacing any stale one for the same
// participant so a participant never waits twice.
func (p *WaitingPool) Enqueue(id domain.ParticipantID, profile domain.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(id)
	p.entries = append(p.entries, WaitingEntry{
		Participant: id,
		Profile:     profile,
		EnqueuedAt:  time.Now(),
	})
}

// DequeueAny removes and returns the oldest entry whose participant is not
// excluding. The exclusion guards against self-pairing through a stale entry.
func (p *WaitingPool) DequeueAny(excluding domain.ParticipantID) (WaitingEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.entries {
		if e.Participant == excluding {
			continue
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		return e, true
	}
	return WaitingEntry{}, false
}

// Remove drops the participant's entry if present, no-op otherwise.
func (p *WaitingPool) Remove(id domain.ParticipantID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(id)
}

func (p *WaitingPool) removeLocked(id domain.ParticipantID) bool {
	for i, e := range p.entries {
		if e.Participant == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (p *WaitingPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Contains reports whether the participant currently waits in the pool.
func (p *WaitingPool) Contains(id domain.ParticipantID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.Participant == id {
			return true
		}
	}
	return false
}
