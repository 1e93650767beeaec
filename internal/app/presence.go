package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
	"github.com/rs/zerolog/log"
)

// PresenceBroadcaster mirrors the presence store and pushes the online set to
// every registered connection. It is not room scoped.
type PresenceBroadcaster struct {
	store    core.PresenceStore
	registry *Registry

	// writeMu orders store writes so the last one always matches the registry.
	writeMu sync.Mutex

	mu   sync.Mutex
	last []domain.PresenceEntry
}

func NewPresenceBroadcaster(store core.PresenceStore, registry *Registry) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		store:    store,
		registry: registry,
		last:     []domain.PresenceEntry{},
	}
}

// Sync writes the registry's current view of user to the store. The flag is
// read under writeMu, so a bind racing with an unbind can never leave the
// store offline while a connection is still bound. A store failure is logged
// and returned.
func (p *PresenceBroadcaster) Sync(ctx context.Context, user domain.UserID) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	online := p.registry.IsOnline(user)
	if err := p.store.SetOnline(ctx, user, online); err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("user", string(user)).Bool("online", online).Msg("presence store update failed")
		return err
	}
	return nil
}

// Snapshot reads the online set, falling back to the last one read.
func (p *PresenceBroadcaster) Snapshot(ctx context.Context) []domain.PresenceEntry {
	users, err := p.store.ListOnline(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Int("last_known", len(p.last)).Msg("presence store unavailable, using last snapshot")
		return append([]domain.PresenceEntry(nil), p.last...)
	}
	if users == nil {
		users = []domain.PresenceEntry{}
	}
	p.last = append(p.last[:0:0], users...)
	return users
}

// Frame encodes the current snapshot as an online_users_updated event.
func (p *PresenceBroadcaster) Frame(ctx context.Context) (core.Frame, error) {
	users := p.Snapshot(ctx)
	b, err := json.Marshal(domain.OnlineUsersEvent{Kind: domain.KindOnlineUsers, Users: users})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// OnChange sends a fresh snapshot to every registered connection.
func (p *PresenceBroadcaster) OnChange(ctx context.Context) core.PublishResult {
	res := core.PublishResult{}
	frame, err := p.Frame(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode presence snapshot")
		return res
	}
	for _, snap := range p.registry.Connections() {
		if err := snap.Conn.TrySend(frame); err != nil {
			if errors.Is(err, core.ErrConnClosed) {
				continue
			}
			res.Dropped = append(res.Dropped, snap.ID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.presence").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("presence broadcast")
	return res
}
