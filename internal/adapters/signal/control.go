package signal

import "github.com/dkeye/SignCall/internal/core"

func (ctl *SignalWSController) handlePing(cid core.ConnID) {
	ctl.Orch.Pong(cid)
}
