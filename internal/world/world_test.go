package world

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormsnet/lobbyserver/internal/protocol"
)

type noopSender struct{}

func (noopSender) Send([]byte) {}

func newTestUser(w *World, name string) *User {
	id := w.NextID()
	si := protocol.NewSessionInfo(protocol.NationNone, protocol.SessionTypeUser, protocol.SessionAccessPublic)
	return NewUser(id, name, si, netip.MustParseAddr("10.0.0.1"), noopSender{})
}

func TestIDsAreMonotonicAndAboveFirstID(t *testing.T) {
	a := NewIDAllocator()
	prev := a.Alloc()
	assert.GreaterOrEqual(t, prev, FirstID)
	for i := 0; i < 10; i++ {
		next := a.Alloc()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestFreedIDReappearsBeforeCounterAdvances(t *testing.T) {
	a := NewIDAllocator()
	first := a.Alloc()
	second := a.Alloc()
	a.Free(first)

	// The recycled id must come back before the counter hands out a new one.
	next := a.Alloc()
	assert.Equal(t, first, next)

	after := a.Alloc()
	assert.Greater(t, after, second)
}

func TestNoTwoLiveEntitiesShareAnID(t *testing.T) {
	w := New()
	u := newTestUser(w, "alice")
	w.AddUser(u)

	r := NewRoom(w.NextID(), "lobby", protocol.NewSessionInfo(protocol.NationNone, protocol.SessionTypeRoom, protocol.SessionAccessPublic), netip.MustParseAddr("10.0.0.1"))
	w.AddRoom(r)

	assert.NotEqual(t, u.ID, r.ID)

	w.RemoveUser(u.ID)
	_, ok := w.GetUser(u.ID)
	assert.False(t, ok)
}

func TestRemoveUserIsIdempotent(t *testing.T) {
	w := New()
	u := newTestUser(w, "alice")
	w.AddUser(u)

	_, ok := w.RemoveUser(u.ID)
	assert.True(t, ok)

	_, ok = w.RemoveUser(u.ID)
	assert.False(t, ok)
}

func TestUsersInRoomMatchesFilterAtCallTime(t *testing.T) {
	w := New()
	alice := newTestUser(w, "alice")
	bob := newTestUser(w, "bob")
	carol := newTestUser(w, "carol")
	w.AddUser(alice)
	w.AddUser(bob)
	w.AddUser(carol)

	roomID := w.NextID()
	alice.SetRoomID(roomID)
	bob.SetRoomID(roomID)

	inRoom := w.UsersInRoom(roomID)
	require.Len(t, inRoom, 2)

	names := map[string]bool{}
	for _, u := range inRoom {
		names[u.Name] = true
	}
	assert.True(t, names["alice"])
	assert.True(t, names["bob"])
	assert.False(t, names["carol"])

	bob.SetRoomID(0)
	assert.Len(t, w.UsersInRoom(roomID), 1)
}

func TestGameByNameIsCaseSensitive(t *testing.T) {
	w := New()
	si := protocol.NewSessionInfo(protocol.NationNone, protocol.SessionTypeGame, protocol.SessionAccessPublic)
	g := NewGame(w.NextID(), "Alice", si, w.NextID(), netip.MustParseAddr("10.0.0.2"))
	w.AddGame(g)

	_, ok := w.GameByName("Alice")
	assert.True(t, ok)

	_, ok = w.GameByName("alice")
	assert.False(t, ok)
}

func TestRoomIsEmptyConsidersUsersAndGames(t *testing.T) {
	w := New()
	roomID := w.NextID()

	assert.True(t, w.RoomIsEmpty(roomID))

	u := newTestUser(w, "alice")
	u.SetRoomID(roomID)
	w.AddUser(u)
	assert.False(t, w.RoomIsEmpty(roomID))

	w.RemoveUser(u.ID)
	assert.True(t, w.RoomIsEmpty(roomID))

	si := protocol.NewSessionInfo(protocol.NationNone, protocol.SessionTypeGame, protocol.SessionAccessPublic)
	g := NewGame(w.NextID(), "alice", si, roomID, netip.MustParseAddr("10.0.0.3"))
	w.AddGame(g)
	assert.False(t, w.RoomIsEmpty(roomID))
}
