package world

import (
	"net/netip"
	"sync/atomic"

	"github.com/wormsnet/lobbyserver/internal/protocol"
)

// Sender is the narrow back-reference from a User to its connection
// session (§9 "cyclic reference"). A User reaches its session only
// through this interface, which exposes nothing but Send; the world
// package never calls it, the lobby package uses it to deliver
// broadcast bytes to users taken from a directory snapshot.
type Sender interface {
	// Send enqueues an already-encoded frame for delivery to this user.
	// Implementations must not block.
	Send(frame []byte)
}

// User is a logged-in principal; at most one per session.
type User struct {
	ID          uint32
	Name        string
	SessionInfo protocol.SessionInfo
	Address     netip.Addr

	// roomID is 0 ("no room") or refers to a live Room.ID. Mutable and
	// read concurrently by any handler (§5 "per-user state").
	roomID atomic.Uint32

	// Session is the non-owning back-reference used to push broadcasts
	// to this user's connection (§9).
	Session Sender
}

// NewUser constructs a User with no room assigned.
func NewUser(id uint32, name string, si protocol.SessionInfo, addr netip.Addr, session Sender) *User {
	return &User{
		ID:          id,
		Name:        name,
		SessionInfo: si,
		Address:     addr,
		Session:     session,
	}
}

// RoomID returns the room the user currently occupies, or 0.
func (u *User) RoomID() uint32 { return u.roomID.Load() }

// SetRoomID updates the user's room membership.
func (u *User) SetRoomID(id uint32) { u.roomID.Store(id) }

// Room is a named rendezvous; immutable after creation.
type Room struct {
	ID          uint32
	Name        string
	SessionInfo protocol.SessionInfo
	HostAddress netip.Addr
}

// NewRoom constructs a Room.
func NewRoom(id uint32, name string, si protocol.SessionInfo, hostAddr netip.Addr) *Room {
	return &Room{ID: id, Name: name, SessionInfo: si, HostAddress: hostAddr}
}

// Game is a peer-to-peer session hosted by a user; immutable after creation.
type Game struct {
	ID          uint32
	Name        string // always equal to the host's user name
	SessionInfo protocol.SessionInfo
	RoomID      uint32
	HostAddress netip.Addr
}

// NewGame constructs a Game.
func NewGame(id uint32, name string, si protocol.SessionInfo, roomID uint32, hostAddr netip.Addr) *Game {
	return &Game{ID: id, Name: name, SessionInfo: si, RoomID: roomID, HostAddress: hostAddr}
}
