package orch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/dkeye/SignCall/internal/app"
	"github.com/dkeye/SignCall/internal/app/sign"
	"github.com/dkeye/SignCall/internal/core"
	"github.com/dkeye/SignCall/internal/domain"
)

type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
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

func (c *recConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// kinds returns the kind of every frame received so far.
func (c *recConn) kinds() []domain.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Kind, 0, len(c.frames))
	for _, f := range c.frames {
		var head struct {
			Kind domain.Kind `json:"kind"`
		}
		_ = json.Unmarshal(f, &head)
		out = append(out, head.Kind)
	}
	return out
}

func (c *recConn) countKind(k domain.Kind) int {
	n := 0
	for _, got := range c.kinds() {
		if got == k {
			n++
		}
	}
	return n
}

// last decodes the most recent frame of kind k into v.
func (c *recConn) last(t *testing.T, k domain.Kind, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		var head struct {
			Kind domain.Kind `json:"kind"`
		}
		_ = json.Unmarshal(c.frames[i], &head)
		if head.Kind == k {
			if err := json.Unmarshal(c.frames[i], v); err != nil {
				t.Fatalf("decode %s: %v", k, err)
			}
			return
		}
	}
	t.Fatalf("no %s frame received", k)
}

func (c *recConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

type memStore struct {
	mu     sync.Mutex
	online map[domain.UserID]bool
	// beforeWrite runs ahead of every write, outside the store lock.
	beforeWrite func(user domain.UserID, online bool)
}

func (s *memStore) SetOnline(_ context.Context, user domain.UserID, online bool) error {
	if s.beforeWrite != nil {
		s.beforeWrite(user, online)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[user] = online
	return nil
}

func (s *memStore) ListOnline(context.Context) ([]domain.PresenceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.PresenceEntry{}
	for u, on := range s.online {
		if on {
			out = append(out, domain.PresenceEntry{UserID: u, Online: true})
		}
	}
	return out, nil
}

func (s *memStore) isOnline(user domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[user]
}

var errDetector = errors.New("detector down")

func newTestOrchestrator(detector sign.Detector) (*Orchestrator, *memStore) {
	reg := app.NewRegistry()
	store := &memStore{online: make(map[domain.UserID]bool)}
	if detector == nil {
		detector = sign.DetectorFunc(func(context.Context, sign.Frame) (sign.Label, error) {
			return "", errDetector
		})
	}
	return &Orchestrator{
		Registry: reg,
		Rooms:    app.NewRoomManager(),
		Policy:   app.SimplePolicy{Action: app.KickMember},
		Presence: app.NewPresenceBroadcaster(store, reg),
		Signs:    sign.NewAdapter(detector, 0),
		Repeats:  sign.NewRepeats(0),
	}, store
}

// connect registers a recording connection and returns it with a flag set by
// the cancel func.
func connect(o *Orchestrator, cid core.ConnID) (*recConn, *bool) {
	c := &recConn{}
	canceled := new(bool)
	o.Connect(cid, c, func() { *canceled = true })
	return c, canceled
}

func pngPayload(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
