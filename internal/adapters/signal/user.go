package signal

import (
	"context"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
)

func (ctl *SignalWSController) handleIdentify(ctx context.Context, cid core.ConnID, env domain.Envelope) {
	ctl.Orch.Identify(ctx, cid, env.UserID)
}

func (ctl *SignalWSController) handleOnlineUsers(ctx context.Context, cid core.ConnID) {
	ctl.Orch.SendOnlineUsers(ctx, cid)
}
