package signal

import (
	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(cid core.ConnID, env domain.Envelope) {
	log.Debug().Str("module", "signal").Str("cid", string(cid)).Str("room", string(env.Room)).Msg("join")
	ctl.Orch.JoinRoom(cid, env.Room, env.UserID)
}

// handleLeave leaves one room; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(cid core.ConnID, env domain.Envelope) {
	log.Debug().Str("module", "signal").Str("cid", string(cid)).Str("room", string(env.Room)).Msg("leave")
	ctl.Orch.LeaveRoom(cid, env.Room, env.UserID)
}
