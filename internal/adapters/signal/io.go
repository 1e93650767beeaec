package signal

import (
	"context"
	"time"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, cid core.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("cid", string(cid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(ctl.opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump owns the connection's lifecycle: every handler for cid runs here
// and teardown happens exactly once on exit.
func (ctl *SignalWSController) readPump(ctx context.Context, cid core.ConnID, c *WsSignalConn, kick func()) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		kick()
		c.inflight.Wait()
		ctl.Orch.Disconnect(context.Background(), cid)
		ctl.frames.Forget(string(cid))
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, cid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cid core.ConnID, c *WsSignalConn, data []byte) {
	env, err := domain.ParseEnvelope(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad envelope dropped")
		return
	}

	if env.Kind.IsSignaling() {
		ctl.handleRelay(cid, env)
		return
	}
	switch env.Kind {
	case domain.KindIdentify:
		ctl.handleIdentify(ctx, cid, env)
	case domain.KindJoinRoom:
		ctl.handleJoin(cid, env)
	case domain.KindLeaveRoom:
		ctl.handleLeave(cid, env)
	case domain.KindCaption:
		ctl.handleCaption(cid, env)
	case domain.KindVideoFrame:
		ctl.handleVideoFrame(ctx, cid, c, env)
	case domain.KindGetOnlineUsers:
		ctl.handleOnlineUsers(ctx, cid)
	case domain.KindPing:
		ctl.handlePing(cid)
	}
}
