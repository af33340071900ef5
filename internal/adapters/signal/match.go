package signal

import (
	"encoding/json"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *WSController) handleFindMatch(
	pid domain.ParticipantID,
	conn *WsSignalConn,
	data []byte,
) {
	type findMatchPayload struct {
		Type        string `json:"type"`
		PeerAddress string `json:"peer_address"`
		Name        string `json:"name"`
		Gender      string `json:"gender"`
		Age         string `json:"age"`
		Region      string `json:"region"`
	}
	var p findMatchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad find_match payload")
		ctl.sendJSON(conn, core.NewErrorNotice("bad_payload"))
		return
	}
	// Without a peer address the counterpart could never open the media
	// handshake; reject before touching pool or session state.
	if p.PeerAddress == "" {
		log.Warn().Str("module", "signal").Str("pid", string(pid)).Msg("find_match without peer address")
		ctl.sendJSON(conn, core.NewErrorNotice("missing peer address"))
		return
	}
	if p.Name == "" || p.Gender == "" || p.Age == "" {
		log.Debug().Str("module", "signal").Str("pid", string(pid)).Msg("find_match with incomplete profile")
	}

	profile := domain.Profile{
		PeerAddress: p.PeerAddress,
		Name:        p.Name,
		Gender:      p.Gender,
		Age:         p.Age,
		Region:      p.Region,
	}

	res := ctl.Orch.Matchmaker.RequestMatch(pid, profile)
	if res.Enqueued {
		log.Info().Str("module", "signal").Str("pid", string(pid)).Msg("searching")
		return
	}
	// The waiting side was notified by the matchmaker; this side gets its
	// own view of the pairing here.
	ctl.sendJSON(conn, core.NewMatchFound(res.Remote, res.IsInitiator))
}
