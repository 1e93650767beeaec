package core

import (
	"errors"
	"sync"

	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	mu      sync.RWMutex
	members map[ConnID]SignalConnection
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:    room,
		members: make(map[ConnID]SignalConnection),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Members() []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnID, 0, len(r.members))
	for cid := range r.members {
		out = append(out, cid)
	}
	return out
}

func (r *roomImpl) HasMember(cid ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[cid]
	return ok
}

func (r *roomImpl) AddMember(cid ConnID, conn SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[cid]; ok {
		return false
	}
	r.members[cid] = conn
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("cid", string(cid)).Msg("member added")
	return true
}

func (r *roomImpl) RemoveMember(cid ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[cid]; !ok {
		return false
	}
	delete(r.members, cid)
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("cid", string(cid)).Msg("member removed")
	return true
}

// Broadcast fans data out to the members present when the read lock is taken.
// Sends to connections that are already closing are skipped silently.
func (r *roomImpl) Broadcast(from ConnID, data Frame, opts BroadcastOptions) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for cid, conn := range r.members {
		if opts.ExcludeSender && cid == from {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			if errors.Is(err, ErrConnClosed) {
				continue
			}
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
