package signal

import "github.com/dkeye/Roulette/internal/core"

func (ctl *WSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.sendJSON(conn, core.NewPong())
}
