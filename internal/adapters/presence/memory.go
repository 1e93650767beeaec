// Package presence holds the durable user online/offline tables.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/SignCall/internal/domain"
)

// MemoryStore keeps presence in process. LastSeen is stamped when a user goes offline.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.PresenceEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[domain.UserID]domain.PresenceEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) SetOnline(_ context.Context, user domain.UserID, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.users[user]
	e.UserID = user
	e.Online = online
	if !online {
		ts := s.now().UTC()
		e.LastSeen = &ts
	}
	s.users[user] = e
	return nil
}

func (s *MemoryStore) ListOnline(context.Context) ([]domain.PresenceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PresenceEntry, 0, len(s.users))
	for _, e := range s.users {
		if e.Online {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
