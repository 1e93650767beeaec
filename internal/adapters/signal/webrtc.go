package signal

import (
	"context"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards offer, answer and candidate envelopes. Media never
// touches the server; peers connect directly.
func (ctl *SignalWSController) handleRelay(cid core.ConnID, env domain.Envelope) {
	log.Debug().Str("module", "signal").Str("cid", string(cid)).Str("kind", string(env.Kind)).Str("room", string(env.Room)).Msg("relay")
	ctl.Orch.Relay(cid, env)
}

func (ctl *SignalWSController) handleCaption(cid core.ConnID, env domain.Envelope) {
	ctl.Orch.Caption(cid, env)
}

// handleVideoFrame classifies off the read loop. Only one frame per
// connection is in flight; frames arriving meanwhile are dropped.
func (ctl *SignalWSController) handleVideoFrame(ctx context.Context, cid core.ConnID, c *WsSignalConn, env domain.Envelope) {
	if !ctl.frames.Allow(string(cid)) {
		log.Debug().Str("module", "signal").Str("cid", string(cid)).Msg("video frame rate limited")
		return
	}
	if !c.classifying.CompareAndSwap(false, true) {
		log.Debug().Str("module", "signal").Str("cid", string(cid)).Msg("video frame dropped, classifier busy")
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer c.classifying.Store(false)
		ctl.Orch.VideoFrame(ctx, cid, env)
	}()
}
