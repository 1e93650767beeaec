package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

type fakeStore struct {
	mu     sync.Mutex
	online map[domain.UserID]bool
	down   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{online: make(map[domain.UserID]bool)}
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) SetOnline(_ context.Context, user domain.UserID, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.online[user] = online
	return nil
}

func (s *fakeStore) ListOnline(context.Context) ([]domain.PresenceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	var out []domain.PresenceEntry
	for u, on := range s.online {
		if on {
			out = append(out, domain.PresenceEntry{UserID: u, Online: true})
		}
	}
	return out, nil
}
