package core

import "github.com/dkeye/Roulette/internal/domain"

// Notices are the outbound signaling messages. Each carries its wire "type"
// so a notice can be marshaled as-is, locally or across the fan-out bus.

const (
	NoticeMatchFound       = "match_found"
	NoticeMessageReceived  = "message_received"
	NoticeCallEnded        = "call_ended"
	NoticePeerDisconnected = "peer_disconnected"
	NoticeError            = "error"
	NoticePong             = "pong"
)

type MatchFound struct {
	Type              string `json:"type"`
	RemotePeerAddress string `json:"remote_peer_address"`
	RemoteName        string `json:"remote_name"`
	RemoteGender      string `json:"remote_gender,omitempty"`
	RemoteAge         string `json:"remote_age,omitempty"`
	IsInitiator       bool   `json:"is_initiator"`
}

// NewMatchFound describes the counterpart to one side of a fresh pairing.
// isInitiator refers to the receiving side's own role.
func NewMatchFound(remote domain.Profile, isInitiator bool) MatchFound {
	return MatchFound{
		Type:              NoticeMatchFound,
		RemotePeerAddress: remote.PeerAddress,
		RemoteName:        remote.DisplayName(),
		RemoteGender:      remote.Gender,
		RemoteAge:         remote.Age,
		IsInitiator:       isInitiator,
	}
}

type MessageReceived struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewMessageReceived(text string) MessageReceived {
	return MessageReceived{Type: NoticeMessageReceived, Text: text}
}

type CallEnded struct {
	Type string `json:"type"`
}

func NewCallEnded() CallEnded {
	return CallEnded{Type: NoticeCallEnded}
}

type PeerDisconnected struct {
	Type string `json:"type"`
}

func NewPeerDisconnected() PeerDisconnected {
	return PeerDisconnected{Type: NoticePeerDisconnected}
}

type ErrorNotice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorNotice(message string) ErrorNotice {
	return ErrorNotice{Type: NoticeError, Message: message}
}

type Pong struct {
	Type string `json:"type"`
}

func NewPong() Pong {
	return Pong{Type: NoticePong}
}
