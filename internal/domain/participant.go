// Package domain contains entity without logic, just meta-data
package domain

// ParticipantID identifies one live connection. A reconnect gets a new ID.
type ParticipantID string

// State is the matchmaking state of a participant.
type State int

const (
	StateIdle State = iota
	StateSearching
	StatePaired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StatePaired:
		return "paired"
	default:
		return "unknown"
	}
}

const anonymousName = "anonymous"

// Profile is what a participant announces about itself when searching.
// PeerAddress is the handle the external peer-to-peer media layer needs to
// dial this participant; the server forwards it opaquely and never validates it.
// Display fields are optional and unvalidated.
type Profile struct {
	PeerAddress string
	Name        string
	Gender      string
	Age         string
	Region      string
}

// DisplayName substitutes a placeholder for participants that never set a name.
func (p Profile) DisplayName() string {
	if p.Name == "" {
		return anonymousName
	}
	return p.Name
}
