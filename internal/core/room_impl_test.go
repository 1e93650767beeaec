package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/SignCall/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRoomBroadcastExcludeSender(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.AddMember("a", a)
	r.AddMember("b", b)
	r.AddMember("c", c)

	res := r.Broadcast("a", Frame("x"), BroadcastOptions{ExcludeSender: true})
	if res.SendTo != 2 {
		t.Fatalf("sent to %d, want 2", res.SendTo)
	}
	if a.count() != 0 || b.count() != 1 || c.count() != 1 {
		t.Fatalf("unexpected delivery a=%d b=%d c=%d", a.count(), b.count(), c.count())
	}

	res = r.Broadcast("a", Frame("y"), BroadcastOptions{})
	if res.SendTo != 3 || a.count() != 1 {
		t.Fatalf("include sender: sent to %d, a=%d", res.SendTo, a.count())
	}
}

func TestRoomBroadcastReportsDropsAndSkipsClosed(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	ok := &fakeConn{}
	full := &fakeConn{err: ErrBackpressure}
	closed := &fakeConn{err: ErrConnClosed}
	r.AddMember("ok", ok)
	r.AddMember("full", full)
	r.AddMember("closed", closed)

	res := r.Broadcast("x", Frame("m"), BroadcastOptions{})
	if res.SendTo != 1 {
		t.Fatalf("sent to %d, want 1", res.SendTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "full" {
		t.Fatalf("dropped = %v, want [full]", res.Dropped)
	}
}

func TestRoomAddRemoveIdempotent(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	if !r.AddMember("a", &fakeConn{}) {
		t.Fatal("first add should succeed")
	}
	if r.AddMember("a", &fakeConn{}) {
		t.Fatal("second add should be a no-op")
	}
	if !r.RemoveMember("a") || r.RemoveMember("a") {
		t.Fatal("remove should succeed exactly once")
	}
	if r.MemberCount() != 0 {
		t.Fatalf("count = %d", r.MemberCount())
	}
}

func TestRoomConcurrentAdds(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.AddMember(ConnID(fmt.Sprintf("c%d", i)), &fakeConn{})
		}(i)
	}
	wg.Wait()
	if got := r.MemberCount(); got != n {
		t.Fatalf("count = %d, want %d", got, n)
	}
}
