package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// Relay forwards an offer, answer or ICE candidate to the rest of the room.
// The payload is passed through untouched.
func (o *Orchestrator) Relay(cid core.ConnID, env domain.Envelope) {
	payload := env.Payload()
	if o.Check != nil {
		if err := o.Check(env.Kind, payload); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("cid", string(cid)).Str("kind", string(env.Kind)).Msg("signal dropped")
			return
		}
	}
	room, ok := o.Rooms.GetRoom(env.Room)
	if !ok {
		log.Debug().Str("module", "orch").Str("room", string(env.Room)).Str("kind", string(env.Kind)).Msg("relay to empty room")
		return
	}
	ev := domain.SignalEvent{
		Kind:       env.Kind,
		Room:       env.Room,
		SenderID:   o.senderOf(cid, env.SenderID),
		SenderConn: string(cid),
	}
	switch env.Kind {
	case domain.KindOffer:
		ev.Offer = payload
	case domain.KindAnswer:
		ev.Answer = payload
	case domain.KindIceCandidate:
		ev.Candidate = payload
	}
	o.publish(room, cid, ev, core.BroadcastOptions{ExcludeSender: true})
}

// Caption broadcasts text to the whole room, sender included. Captions
// without a type are speech transcripts.
func (o *Orchestrator) Caption(cid core.ConnID, env domain.Envelope) {
	kind := env.CaptionType
	if kind == "" {
		kind = domain.CaptionTypeSpeech
	}
	o.broadcastCaption(cid, env.Room, env.Caption, kind, env.SenderID, env.SenderName, env.Timestamp)
}

// VideoFrame classifies a frame and, when a sign is found, captions it to the room.
func (o *Orchestrator) VideoFrame(ctx context.Context, cid core.ConnID, env domain.Envelope) {
	if o.Signs == nil {
		return
	}
	label := o.Signs.ClassifyPayload(ctx, env.Frame)
	if !label.Detected() {
		return
	}
	if !o.Repeats.Allow(string(cid), label) {
		log.Debug().Str("module", "orch").Str("cid", string(cid)).Str("sign", string(label)).Msg("repeated sign suppressed")
		return
	}
	o.broadcastCaption(cid, env.Room, string(label), domain.CaptionTypeSign, env.SenderID, env.SenderName, env.Timestamp)
}

func (o *Orchestrator) broadcastCaption(cid core.ConnID, roomID domain.RoomID, text, kind string, claimed domain.UserID, name string, ts json.RawMessage) {
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return
	}
	if name == "" {
		name = domain.DefaultSenderName
	}
	if len(ts) == 0 {
		ts, _ = json.Marshal(o.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}
	o.publish(room, cid, domain.CaptionEvent{
		Kind:       domain.KindCaption,
		ID:         ulid.Make().String(),
		Room:       roomID,
		Caption:    text,
		Type:       kind,
		SenderID:   o.senderOf(cid, claimed),
		SenderName: name,
		Timestamp:  ts,
	}, core.BroadcastOptions{})
}
