package orch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/SignCall/internal/app"
	"github.com/dkeye/SignCall/internal/app/sign"
	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// SignalCheck rejects an offer, answer or candidate payload before it is relayed.
type SignalCheck func(kind domain.Kind, payload json.RawMessage) error

// Orchestrator owns every write to the registry and the room directory.
// Handlers for one connection are called from that connection's read loop,
// except VideoFrame, which may run beside them and only reads membership.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Presence *app.PresenceBroadcaster
	Signs    *sign.Adapter
	Repeats  *sign.Repeats
	Check    SignalCheck
	Now      func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Connect registers a fresh connection and greets it with its id.
func (o *Orchestrator) Connect(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Register(cid, conn, cancel)
	o.sendTo(cid, domain.ConnectedEvent{Kind: domain.KindConnected, ConnID: string(cid)})
}

func (o *Orchestrator) publish(room core.RoomService, from core.ConnID, v any, opts core.BroadcastOptions) core.PublishResult {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return core.PublishResult{}
	}
	res := room.Broadcast(from, b, opts)
	o.handleDropped(res.Dropped)
	return res
}

// handleDropped applies the backpressure policy to slow receivers. A kicked
// connection is unregistered by its own read loop once the transport closes.
func (o *Orchestrator) handleDropped(dropped []core.ConnID) {
	if o.Policy == nil {
		return
	}
	for _, cid := range dropped {
		switch o.Policy.OnBackPressure(cid) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("cid", string(cid)).Msg("outbound queue full, kicking")
			o.Registry.Cancel(cid)
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "orch").Str("cid", string(cid)).Msg("outbound queue full, frame dropped")
		}
	}
}

func (o *Orchestrator) sendTo(cid core.ConnID, v any) {
	conn, ok := o.Registry.Get(cid)
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return
	}
	if err := conn.TrySend(b); err != nil && !errors.Is(err, core.ErrConnClosed) {
		o.handleDropped([]core.ConnID{cid})
	}
}

func (o *Orchestrator) Pong(cid core.ConnID) {
	o.sendTo(cid, domain.PongEvent{Kind: domain.KindPong})
}

// senderOf prefers the identity bound by Identify over the claimed one.
func (o *Orchestrator) senderOf(cid core.ConnID, claimed domain.UserID) domain.UserID {
	if user, ok := o.Registry.UserOf(cid); ok {
		return user
	}
	return claimed
}
