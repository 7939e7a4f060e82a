package signaling

import (
	"slices"
	"testing"
)

func TestRegistryJoinCreatesRoom(t *testing.T) {
	reg := NewRegistry()

	room, added := reg.Join("photos", "peer-a")
	if !added {
		t.Fatal("expected peer-a to be added")
	}
	if room.ID != "photos" {
		t.Errorf("expected room id photos, got %s", room.ID)
	}
	if len(room.Members) != 1 || room.Members[0] != "peer-a" {
		t.Errorf("unexpected members: %v", room.Members)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 room, got %d", reg.Len())
	}
}

func TestRegistryJoinIdempotent(t *testing.T) {
	reg := NewRegistry()

	reg.Join("photos", "peer-a")
	room, added := reg.Join("photos", "peer-a")
	if added {
		t.Error("second join of the same peer should be a no-op")
	}
	if len(room.Members) != 1 {
		t.Errorf("expected member set unchanged, got %v", room.Members)
	}
}

func TestRegistryMembersKeepJoinOrder(t *testing.T) {
	reg := NewRegistry()

	reg.Join("photos", "peer-a")
	reg.Join("photos", "peer-b")
	room, _ := reg.Join("photos", "peer-c")

	want := []string{"peer-a", "peer-b", "peer-c"}
	if !slices.Equal(room.Members, want) {
		t.Errorf("expected members %v, got %v", want, room.Members)
	}
}

func TestRegistryLeaveDeletesEmptyRoom(t *testing.T) {
	reg := NewRegistry()

	reg.Join("photos", "peer-a")
	removed, deleted := reg.Leave("photos", "peer-a")
	if !removed || !deleted {
		t.Fatalf("expected removed and deleted, got removed=%v deleted=%v", removed, deleted)
	}
	if _, ok := reg.Lookup("photos"); ok {
		t.Error("emptied room must not exist")
	}
}

func TestRegistryLeaveKeepsNonEmptyRoom(t *testing.T) {
	reg := NewRegistry()

	reg.Join("photos", "peer-a")
	reg.Join("photos", "peer-b")
	removed, deleted := reg.Leave("photos", "peer-a")
	if !removed || deleted {
		t.Fatalf("expected removed without deletion, got removed=%v deleted=%v", removed, deleted)
	}

	room, ok := reg.Lookup("photos")
	if !ok {
		t.Fatal("room should still exist")
	}
	if !slices.Equal(room.Members, []string{"peer-b"}) {
		t.Errorf("expected [peer-b], got %v", room.Members)
	}
}

func TestRegistryLeaveUnknown(t *testing.T) {
	reg := NewRegistry()

	if removed, deleted := reg.Leave("nope", "peer-a"); removed || deleted {
		t.Error("leaving an unknown room must be a no-op")
	}

	reg.Join("photos", "peer-a")
	if removed, _ := reg.Leave("photos", "stranger"); removed {
		t.Error("leaving a room the peer is not in must be a no-op")
	}
}

// A room exists if and only if its member set is non-empty, after any
// sequence of joins and leaves.
func TestRegistryExistsIffNonEmpty(t *testing.T) {
	reg := NewRegistry()

	type op struct {
		join bool
		room string
		peer string
	}
	ops := []op{
		{true, "r1", "a"},
		{true, "r1", "b"},
		{true, "r2", "a"},
		{false, "r1", "a"},
		{false, "r2", "a"},
		{true, "r1", "c"},
		{false, "r1", "b"},
		{false, "r1", "c"},
	}

	for i, o := range ops {
		if o.join {
			reg.Join(o.room, o.peer)
		} else {
			reg.Leave(o.room, o.peer)
		}
		for id, room := range reg.rooms {
			if len(room.Members) == 0 {
				t.Fatalf("after op %d: room %s exists with zero members", i, id)
			}
		}
	}
	if reg.Len() != 0 {
		t.Errorf("expected no rooms left, got %d", reg.Len())
	}
}

func TestRegistryRoomsWith(t *testing.T) {
	reg := NewRegistry()

	reg.Join("r1", "a")
	reg.Join("r2", "a")
	reg.Join("r2", "b")

	rooms := reg.RoomsWith("a")
	if len(rooms) != 2 {
		t.Fatalf("expected peer a in 2 rooms, got %d", len(rooms))
	}
	if len(reg.RoomsWith("b")) != 1 {
		t.Error("expected peer b in 1 room")
	}
	if len(reg.RoomsWith("c")) != 0 {
		t.Error("expected peer c in no rooms")
	}
}
