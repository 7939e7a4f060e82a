package signaling

import "slices"

// Room is a named group of connections that should negotiate with each
// other. Members are kept in join order.
type Room struct {
	ID      string
	Members []string
}

// HasMember reports whether the peer id is a member of the room.
func (r *Room) HasMember(peerID string) bool {
	return slices.Contains(r.Members, peerID)
}

// Registry is the in-memory room state backing the hub. It is pure
// bookkeeping: all relay behavior lives in the hub, which owns the registry
// and serializes every mutation through its event loop.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Lookup returns the room with the given id, if it exists.
func (g *Registry) Lookup(roomID string) (*Room, bool) {
	room, ok := g.rooms[roomID]
	return room, ok
}

// Join adds the peer to the room, creating the room if it does not exist
// yet. It returns the room and whether the peer was actually added; joining
// a room the peer is already a member of is a no-op.
func (g *Registry) Join(roomID, peerID string) (*Room, bool) {
	room, ok := g.rooms[roomID]
	if !ok {
		room = &Room{ID: roomID}
		g.rooms[roomID] = room
	}
	if room.HasMember(peerID) {
		return room, false
	}
	room.Members = append(room.Members, peerID)
	return room, true
}

// Leave removes the peer from the room. An emptied room is deleted
// immediately: a room with zero members does not exist. The second return
// value reports whether the room was deleted.
func (g *Registry) Leave(roomID, peerID string) (removed, deleted bool) {
	room, ok := g.rooms[roomID]
	if !ok {
		return false, false
	}
	idx := slices.Index(room.Members, peerID)
	if idx < 0 {
		return false, false
	}
	room.Members = slices.Delete(room.Members, idx, idx+1)
	if len(room.Members) == 0 {
		delete(g.rooms, roomID)
		return true, true
	}
	return true, false
}

// RoomsWith returns every room the peer is currently a member of, in
// unspecified order.
func (g *Registry) RoomsWith(peerID string) []*Room {
	var rooms []*Room
	for _, room := range g.rooms {
		if room.HasMember(peerID) {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	return len(g.rooms)
}
