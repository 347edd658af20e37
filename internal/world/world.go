package world

import "strings"

// World is the shared, concurrent lobby state: three independent
// directories (users, rooms, games) plus the ID allocator they share.
// Each directory is guarded by its own lock; callers must never hold
// more than one directory's lock at a time (§5).
type World struct {
	ids *IDAllocator

	users *directory[*User]
	rooms *directory[*Room]
	games *directory[*Game]
}

// New returns an empty World.
func New() *World {
	return &World{
		ids:   NewIDAllocator(),
		users: newDirectory[*User](),
		rooms: newDirectory[*Room](),
		games: newDirectory[*Game](),
	}
}

// NextID allocates a fresh entity ID, preferring recycled IDs (§3, §4.4).
func (w *World) NextID() uint32 { return w.ids.Alloc() }

// AddUser inserts u by its ID.
func (w *World) AddUser(u *User) { w.users.add(u.ID, u) }

// AddRoom inserts r by its ID.
func (w *World) AddRoom(r *Room) { w.rooms.add(r.ID, r) }

// AddGame inserts g by its ID.
func (w *World) AddGame(g *Game) { w.games.add(g.ID, g) }

// RemoveUser removes the user and recycles its ID. Idempotent after the
// first call: subsequent calls with the same id are no-ops.
func (w *World) RemoveUser(id uint32) (*User, bool) {
	u, ok := w.users.remove(id)
	if ok {
		w.ids.Free(id)
	}
	return u, ok
}

// RemoveRoom removes the room and recycles its ID.
func (w *World) RemoveRoom(id uint32) (*Room, bool) {
	r, ok := w.rooms.remove(id)
	if ok {
		w.ids.Free(id)
	}
	return r, ok
}

// RemoveGame removes the game and recycles its ID.
func (w *World) RemoveGame(id uint32) (*Game, bool) {
	g, ok := w.games.remove(id)
	if ok {
		w.ids.Free(id)
	}
	return g, ok
}

// GetUser looks up a user by ID.
func (w *World) GetUser(id uint32) (*User, bool) { return w.users.get(id) }

// GetRoom looks up a room by ID.
func (w *World) GetRoom(id uint32) (*Room, bool) { return w.rooms.get(id) }

// GetGame looks up a game by ID.
func (w *World) GetGame(id uint32) (*Game, bool) { return w.games.get(id) }

// Users returns a snapshot of all currently-known users.
func (w *World) Users() []*User { return w.users.snapshot() }

// Rooms returns a snapshot of all currently-known rooms.
func (w *World) Rooms() []*Room { return w.rooms.snapshot() }

// Games returns a snapshot of all currently-known games.
func (w *World) Games() []*Game { return w.games.snapshot() }

// UserCount returns the number of users currently in the directory.
func (w *World) UserCount() int { return w.users.count() }

// UsersInRoom returns a snapshot of every user whose RoomID equals roomID
// at the moment of the call.
func (w *World) UsersInRoom(roomID uint32) []*User {
	all := w.users.snapshot()
	out := make([]*User, 0, len(all))
	for _, u := range all {
		if u.RoomID() == roomID {
			out = append(out, u)
		}
	}
	return out
}

// GamesInRoom returns a snapshot of every game whose RoomID equals roomID.
func (w *World) GamesInRoom(roomID uint32) []*Game {
	all := w.games.snapshot()
	out := make([]*Game, 0, len(all))
	for _, g := range all {
		if g.RoomID == roomID {
			out = append(out, g)
		}
	}
	return out
}

// UserByName finds a user by case-insensitive name match.
func (w *World) UserByName(name string) (*User, bool) {
	for _, u := range w.users.snapshot() {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return nil, false
}

// RoomByName finds a room by case-insensitive name match.
func (w *World) RoomByName(name string) (*Room, bool) {
	for _, r := range w.rooms.snapshot() {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return nil, false
}

// GameByName finds a game by case-sensitive name match (§4.4): a game
// is named after its host, and host names are already unique
// case-insensitively, so an exact match is sufficient and matches the
// legacy server's linear-scan semantics.
func (w *World) GameByName(name string) (*Game, bool) {
	for _, g := range w.games.snapshot() {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// SetUserRoom updates the room membership of the user identified by
// userID, if it exists.
func (w *World) SetUserRoom(userID, roomID uint32) {
	if u, ok := w.users.get(userID); ok {
		u.SetRoomID(roomID)
	}
}

// RoomIsEmpty reports whether no live user or game references roomID.
func (w *World) RoomIsEmpty(roomID uint32) bool {
	for _, u := range w.users.snapshot() {
		if u.RoomID() == roomID {
			return false
		}
	}
	for _, g := range w.games.snapshot() {
		if g.RoomID == roomID {
			return false
		}
	}
	return true
}
