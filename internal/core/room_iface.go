package core

import (
	"github.com/dkeye/SignCall/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []ConnID
}

// BroadcastOptions tunes a room fan-out.
type BroadcastOptions struct {
	ExcludeSender bool
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Members() []ConnID
	HasMember(cid ConnID) bool

	AddMember(cid ConnID, conn SignalConnection) bool
	RemoveMember(cid ConnID) bool
	Broadcast(from ConnID, data Frame, opts BroadcastOptions) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

// RoomManager creates rooms on first join and drops them when the last member leaves.
type RoomManager interface {
	Join(id domain.RoomID, cid ConnID, conn SignalConnection) (room RoomService, added bool)
	Leave(id domain.RoomID, cid ConnID) (room RoomService, removed bool)
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
}
