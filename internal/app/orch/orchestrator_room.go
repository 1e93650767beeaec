package orch

import (
	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinRoom adds cid to room and tells the other members. The joiner never
// receives its own user_joined.
func (o *Orchestrator) JoinRoom(cid core.ConnID, roomID domain.RoomID, claimed domain.UserID) {
	conn, ok := o.Registry.Get(cid)
	if !ok {
		return
	}
	room, added := o.Rooms.Join(roomID, cid, conn)
	if !added {
		log.Debug().Str("module", "orch").Str("cid", string(cid)).Str("room", string(roomID)).Msg("already in room")
		return
	}
	o.Registry.AddRoom(cid, roomID)
	user := o.senderOf(cid, claimed)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("user", string(user)).Str("room", string(roomID)).Msg("joined room")

	o.publish(room, cid, domain.UserJoinedEvent{
		Kind:   domain.KindUserJoined,
		Room:   roomID,
		UserID: user,
		ConnID: string(cid),
	}, core.BroadcastOptions{ExcludeSender: true})
}

// LeaveRoom removes cid from room; leaving a room it is not in is a no-op.
func (o *Orchestrator) LeaveRoom(cid core.ConnID, roomID domain.RoomID, claimed domain.UserID) {
	o.Registry.RemoveRoom(cid, roomID)
	o.leave(cid, roomID, o.senderOf(cid, claimed))
}

func (o *Orchestrator) leave(cid core.ConnID, roomID domain.RoomID, user domain.UserID) {
	room, removed := o.Rooms.Leave(roomID, cid)
	if !removed {
		return
	}
	log.Info().Str("module", "orch").Str("cid", string(cid)).Str("user", string(user)).Str("room", string(roomID)).Msg("left room")
	o.publish(room, cid, domain.UserLeftEvent{
		Kind:   domain.KindUserLeft,
		Room:   roomID,
		UserID: user,
	}, core.BroadcastOptions{})
}
