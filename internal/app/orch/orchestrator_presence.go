package orch

import (
	"context"
	"errors"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// Identify binds user to cid and announces the new online set.
func (o *Orchestrator) Identify(ctx context.Context, cid core.ConnID, user domain.UserID) {
	res, ok := o.Registry.Identify(cid, user)
	if !ok || !res.Changed {
		return
	}
	if res.PreviousOffline {
		_ = o.Presence.Sync(ctx, res.Previous)
	}
	_ = o.Presence.Sync(ctx, user)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("user", string(user)).Msg("user online")
	o.broadcastPresence(ctx)
}

// SendOnlineUsers answers get_online_users to the requester only.
func (o *Orchestrator) SendOnlineUsers(ctx context.Context, cid core.ConnID) {
	conn, ok := o.Registry.Get(cid)
	if !ok {
		return
	}
	frame, err := o.Presence.Frame(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode presence snapshot")
		return
	}
	if err := conn.TrySend(frame); err != nil && !errors.Is(err, core.ErrConnClosed) {
		o.handleDropped([]core.ConnID{cid})
	}
}

// Disconnect tears cid down: every room it was in hears user_left and the
// user goes offline when this was its last connection. Only the first call
// for a connection has any effect.
func (o *Orchestrator) Disconnect(ctx context.Context, cid core.ConnID) {
	d, ok := o.Registry.Unregister(cid)
	if !ok {
		return
	}
	o.Repeats.Forget(string(cid))
	for _, roomID := range d.Rooms {
		o.leave(cid, roomID, d.User)
	}
	if d.LastForUser {
		_ = o.Presence.Sync(ctx, d.User)
		log.Info().Str("module", "orch").Str("cid", string(cid)).Str("user", string(d.User)).Msg("user offline")
		o.broadcastPresence(ctx)
	}
}

func (o *Orchestrator) broadcastPresence(ctx context.Context) {
	res := o.Presence.OnChange(ctx)
	o.handleDropped(res.Dropped)
}
