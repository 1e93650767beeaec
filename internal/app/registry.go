package app

import (
	"context"
	"sync"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.SignalConnection
	User   domain.UserID
	Rooms  map[domain.RoomID]struct{}
	Cancel context.CancelFunc
}

// Registry tracks live connections, the user each one is bound to and the
// rooms it belongs to. Nothing outside this type touches the maps.
type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]*connEntry
	byUser map[domain.UserID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[core.ConnID]*connEntry),
		byUser: make(map[domain.UserID]map[core.ConnID]struct{}),
	}
}

// Register creates an unbound entry with an empty room set.
// cancel is invoked by Cancel to schedule teardown of the transport.
func (r *Registry) Register(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{
		Conn:   conn,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("registered connection")
}

// IdentifyResult describes what a bind changed.
type IdentifyResult struct {
	Changed bool
	// Previous is the user the connection was bound to before, if any.
	Previous domain.UserID
	// PreviousOffline is true when Previous has no other connection left.
	PreviousOffline bool
}

// Identify binds user to cid. Binding the same user again changes nothing.
func (r *Registry) Identify(cid core.ConnID, user domain.UserID) (IdentifyResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return IdentifyResult{}, false
	}
	if e.User == user {
		return IdentifyResult{}, true
	}
	res := IdentifyResult{Changed: true, Previous: e.User}
	if e.User != "" {
		res.PreviousOffline = r.unbindLocked(cid, e.User)
	}
	e.User = user
	set, ok := r.byUser[user]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byUser[user] = set
	}
	set[cid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(user)).Msg("identified connection")
	return res, true
}

// unbindLocked reports whether user has no connection left.
func (r *Registry) unbindLocked(cid core.ConnID, user domain.UserID) bool {
	set := r.byUser[user]
	delete(set, cid)
	if len(set) == 0 {
		delete(r.byUser, user)
		return true
	}
	return false
}

// Departure is what Unregister hands back for cleanup.
type Departure struct {
	User  domain.UserID
	Rooms []domain.RoomID
	// LastForUser is true when User is set and no other connection is bound to it.
	LastForUser bool
}

// Unregister removes cid. Only the first call for a connection returns ok.
func (r *Registry) Unregister(cid core.ConnID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return Departure{}, false
	}
	delete(r.conns, cid)
	d := Departure{User: e.User, Rooms: make([]domain.RoomID, 0, len(e.Rooms))}
	for room := range e.Rooms {
		d.Rooms = append(d.Rooms, room)
	}
	if e.User != "" {
		d.LastForUser = r.unbindLocked(cid, e.User)
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(e.User)).Int("rooms", len(d.Rooms)).Msg("unregistered connection")
	return d, true
}

func (r *Registry) Get(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) UserOf(cid core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) AddRoom(cid core.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.Rooms[room] = struct{}{}
	return true
}

func (r *Registry) RemoveRoom(cid core.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	if _, in := e.Rooms[room]; !in {
		return false
	}
	delete(e.Rooms, room)
	return true
}

func (r *Registry) InRoom(cid core.ConnID, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	_, in := e.Rooms[room]
	return in
}

// IsOnline reports whether any live connection is bound to user.
func (r *Registry) IsOnline(user domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user]) > 0
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

type regSnap struct {
	ID   core.ConnID
	Conn core.SignalConnection
}

// Connections snapshots every registered connection. The lock is released
// before the caller fans out.
func (r *Registry) Connections() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.conns))
	for cid, e := range r.conns {
		out = append(out, regSnap{ID: cid, Conn: e.Conn})
	}
	return out
}

// Cancel schedules teardown of cid; Unregister follows from the transport's close path.
func (r *Registry) Cancel(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
