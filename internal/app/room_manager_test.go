package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/SignCall/internal/core"
)

func TestRoomManagerLifecycle(t *testing.T) {
	m := NewRoomManager()
	room, added := m.Join("r1", "c1", &fakeConn{})
	if !added || room.MemberCount() != 1 {
		t.Fatal("join should create the room")
	}
	if _, added := m.Join("r1", "c1", &fakeConn{}); added {
		t.Fatal("double join should not add twice")
	}
	m.Join("r1", "c2", &fakeConn{})

	if _, removed := m.Leave("r1", "c1"); !removed {
		t.Fatal("leave should remove c1")
	}
	if _, ok := m.GetRoom("r1"); !ok {
		t.Fatal("room with a member must survive")
	}
	m.Leave("r1", "c2")
	if _, ok := m.GetRoom("r1"); ok {
		t.Fatal("empty room should be dropped")
	}
	if _, removed := m.Leave("nope", "c1"); removed {
		t.Fatal("leave on unknown room is a no-op")
	}
}

func TestRoomManagerConcurrentJoins(t *testing.T) {
	m := NewRoomManager()
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Join("r1", core.ConnID(fmt.Sprintf("c%d", i)), &fakeConn{})
		}(i)
	}
	wg.Wait()
	room, ok := m.GetRoom("r1")
	if !ok || room.MemberCount() != n {
		t.Fatalf("member count = %d, want %d", room.MemberCount(), n)
	}
	seen := make(map[core.ConnID]bool)
	for _, cid := range room.Members() {
		if seen[cid] {
			t.Fatalf("duplicate member %s", cid)
		}
		seen[cid] = true
	}
}

func TestRoomManagerJoinLeaveChurn(t *testing.T) {
	m := NewRoomManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cid := core.ConnID(fmt.Sprintf("c%d", i))
			for j := 0; j < 20; j++ {
				m.Join("r1", cid, &fakeConn{})
				m.Leave("r1", cid)
			}
		}(i)
	}
	wg.Wait()
	if _, ok := m.GetRoom("r1"); ok {
		t.Fatal("room should be gone after everyone left")
	}
	if len(m.List()) != 0 {
		t.Fatalf("rooms left: %v", m.List())
	}
}
