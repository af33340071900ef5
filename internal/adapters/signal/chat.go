package signal

import (
	"encoding/json"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *WSController) handleSendMessage(
	pid domain.ParticipantID,
	conn *WsSignalConn,
	data []byte,
) {
	type messagePayload struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send_message payload")
		ctl.sendJSON(conn, core.NewErrorNotice("bad_payload"))
		return
	}
	ctl.Orch.Sessions.RelayMessage(pid, p.Text)
}

func (ctl *WSController) handleEndCall(pid domain.ParticipantID) {
	log.Info().Str("module", "signal").Str("pid", string(pid)).Msg("end_call")
	ctl.Orch.Sessions.EndCall(pid)
}
