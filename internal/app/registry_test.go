package app

import (
	"testing"

	"github.com/dkeye/SignCall/internal/domain"
)

func TestRegistryIdentifyIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{}, nil)

	res, ok := r.Identify("c1", "u1")
	if !ok || !res.Changed || res.Previous != "" {
		t.Fatalf("first identify = %+v, %v", res, ok)
	}
	res, ok = r.Identify("c1", "u1")
	if !ok || res.Changed {
		t.Fatalf("repeat identify should not change anything: %+v", res)
	}
	if !r.IsOnline("u1") {
		t.Fatal("u1 should be online")
	}
}

func TestRegistryRebindReleasesPreviousUser(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{}, nil)
	r.Identify("c1", "u1")

	res, _ := r.Identify("c1", "u2")
	if res.Previous != "u1" || !res.PreviousOffline {
		t.Fatalf("rebind = %+v", res)
	}
	if r.IsOnline("u1") || !r.IsOnline("u2") {
		t.Fatal("presence not moved to u2")
	}
}

func TestRegistryIdentifyUnknownConnection(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Identify("missing", "u1"); ok {
		t.Fatal("identify on unknown connection should fail")
	}
}

func TestRegistryUnregisterOnce(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{}, nil)
	r.Register("c2", &fakeConn{}, nil)
	r.Identify("c1", "u1")
	r.Identify("c2", "u1")
	r.AddRoom("c1", "r1")
	r.AddRoom("c1", "r2")

	d, ok := r.Unregister("c1")
	if !ok {
		t.Fatal("first unregister should succeed")
	}
	if d.User != "u1" || d.LastForUser || len(d.Rooms) != 2 {
		t.Fatalf("departure = %+v", d)
	}
	if _, ok := r.Unregister("c1"); ok {
		t.Fatal("second unregister must be a no-op")
	}

	d, _ = r.Unregister("c2")
	if !d.LastForUser {
		t.Fatal("last connection for u1 should report LastForUser")
	}
	if r.IsOnline("u1") || r.Count() != 0 {
		t.Fatal("registry should be empty")
	}
}

func TestRegistryRooms(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{}, nil)
	if !r.AddRoom("c1", "r1") || !r.InRoom("c1", "r1") {
		t.Fatal("room not recorded")
	}
	if r.RemoveRoom("c1", "r2") {
		t.Fatal("removing an absent room should report false")
	}
	if !r.RemoveRoom("c1", "r1") || r.InRoom("c1", "r1") {
		t.Fatal("room not removed")
	}
	if r.AddRoom("missing", domain.RoomID("r1")) {
		t.Fatal("unknown connection cannot join")
	}
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	called := 0
	r.Register("c1", &fakeConn{}, func() { called++ })
	if !r.Cancel("c1") || called != 1 {
		t.Fatalf("cancel called %d times", called)
	}
	if r.Cancel("missing") {
		t.Fatal("cancel on unknown connection should report false")
	}
}
