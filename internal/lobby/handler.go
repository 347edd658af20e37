package lobby

import (
	"log/slog"
	"net/netip"
	"strings"

	"github.com/wormsnet/lobbyserver/internal/protocol"
	"github.com/wormsnet/lobbyserver/internal/world"
)

// cannotHostNotice is the fixed courtesy message sent when a
// CreateGame request's advertised address doesn't match the sender's
// socket address (§4.6, glossary).
const cannotHostNotice = "GRP:Cannot host your game. Please use FrontendKitWS with fkNetcode. More information at worms2d.info/fkNetcode"

// createGameValue4 is the fixed value4 CreateGame requests/broadcasts carry.
const createGameValue4 = 0x800

// handler applies the per-code semantic rules of §4.6 against the
// world state on behalf of one session. It never holds a world lock
// while a send is in flight: all world methods used here return
// owning snapshots or copies.
type handler struct {
	w       *world.World
	session *Session
}

// handle dispatches pkt and returns false when the session must move
// to Draining (structural validation failure), true otherwise.
func (h *handler) handle(pkt *protocol.Packet) bool {
	sender, ok := h.w.GetUser(h.session.UserID())
	if !ok {
		// The user vanished from the directory mid-session; nothing left to do.
		return false
	}

	switch pkt.Code {
	case protocol.CodeChatRoom:
		return h.handleChatRoom(pkt, sender)
	case protocol.CodeListRooms:
		return h.handleListRooms(pkt, sender)
	case protocol.CodeListUsers:
		return h.handleListUsers(pkt, sender)
	case protocol.CodeListGames:
		return h.handleListGames(pkt, sender)
	case protocol.CodeCreateRoom:
		return h.handleCreateRoom(pkt, sender)
	case protocol.CodeJoin:
		return h.handleJoin(pkt, sender)
	case protocol.CodeLeave:
		return h.handleLeave(pkt, sender)
	case protocol.CodeClose:
		return h.handleClose(pkt)
	case protocol.CodeCreateGame:
		return h.handleCreateGame(pkt, sender)
	case protocol.CodeConnectGame:
		return h.handleConnectGame(pkt, sender)
	case protocol.CodeLogin:
		slog.Debug("ignoring login after active", "user", sender.Name)
		return true
	default:
		slog.Debug("ignoring unhandled code", "code", pkt.Code, "user", sender.Name)
		return true
	}
}

func (h *handler) reply(pkt *protocol.Packet) {
	h.session.sendSync(pkt)
}

func (h *handler) handleChatRoom(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value0 == nil || *pkt.Value0 != sender.ID || pkt.Value3 == nil || pkt.Data == nil {
		return false
	}
	data := *pkt.Data

	groupPrefix := "GRP:[ " + sender.Name + " ]  "
	privatePrefix := "PRV:[ " + sender.Name + " ]  "

	switch {
	case strings.HasPrefix(data, groupPrefix):
		if *pkt.Value3 != sender.RoomID() {
			h.reply(protocol.New(protocol.CodeChatRoomReply).WithError(1))
			return true
		}
		forward := protocol.New(protocol.CodeChatRoom).WithValue0(sender.ID).WithValue3(*pkt.Value3).WithData(data)
		peers := h.w.UsersInRoom(sender.RoomID())
		broadcastTo(peers, forward, sender.ID)
		h.reply(protocol.New(protocol.CodeChatRoomReply).WithError(0))

	case strings.HasPrefix(data, privatePrefix):
		target, ok := h.w.GetUser(*pkt.Value3)
		if !ok || target.RoomID() != sender.RoomID() {
			h.reply(protocol.New(protocol.CodeChatRoomReply).WithError(1))
			return true
		}
		forward := protocol.New(protocol.CodeChatRoom).WithValue0(sender.ID).WithValue3(*pkt.Value3).WithData(data)
		sendTo(target, forward)
		h.reply(protocol.New(protocol.CodeChatRoomReply).WithError(0))

	default:
		// Unrecognised prefix: silently accepted, no reply (§4.6).
	}
	return true
}

func (h *handler) handleListRooms(pkt *protocol.Packet, _ *world.User) bool {
	if pkt.Value4 == nil || *pkt.Value4 != 0 {
		return false
	}
	for _, r := range h.w.Rooms() {
		item := protocol.New(protocol.CodeListItem).WithValue1(r.ID).WithName(r.Name).WithData("").WithSessionInfo(r.SessionInfo)
		h.reply(item)
	}
	h.session.Send(protocol.ListEndBytes())
	return true
}

func (h *handler) handleListUsers(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value4 == nil || *pkt.Value4 != 0 || pkt.Value2 == nil || *pkt.Value2 != sender.RoomID() {
		return false
	}
	for _, u := range h.w.UsersInRoom(sender.RoomID()) {
		item := protocol.New(protocol.CodeListItem).WithValue1(u.ID).WithName(u.Name).WithData("").WithSessionInfo(u.SessionInfo)
		h.reply(item)
	}
	h.session.Send(protocol.ListEndBytes())
	return true
}

func (h *handler) handleListGames(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value4 == nil || *pkt.Value4 != 0 || pkt.Value2 == nil || *pkt.Value2 != sender.RoomID() {
		return false
	}
	for _, g := range h.w.GamesInRoom(sender.RoomID()) {
		item := protocol.New(protocol.CodeListItem).WithValue1(g.ID).WithName(g.Name).WithData(g.HostAddress.String()).WithSessionInfo(g.SessionInfo)
		h.reply(item)
	}
	h.session.Send(protocol.ListEndBytes())
	return true
}

func (h *handler) handleCreateRoom(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value1 == nil || *pkt.Value1 != 0 || pkt.Value4 == nil || *pkt.Value4 != 0 ||
		pkt.Name == nil || *pkt.Name == "" || pkt.SessionInfo == nil {
		return false
	}
	name := *pkt.Name
	if _, exists := h.w.RoomByName(name); exists {
		h.reply(protocol.New(protocol.CodeCreateRoomReply).WithValue1(0).WithError(1))
		return true
	}

	id := h.w.NextID()
	si := *pkt.SessionInfo
	si.Type = protocol.SessionTypeRoom
	room := world.NewRoom(id, name, si, sender.Address)
	h.w.AddRoom(room)

	notice := protocol.New(protocol.CodeCreateRoom).WithValue1(id).WithName(name).WithSessionInfo(si)
	broadcastTo(h.w.Users(), notice, sender.ID)

	h.reply(protocol.New(protocol.CodeCreateRoomReply).WithValue1(id).WithError(0))
	return true
}

func (h *handler) handleJoin(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value2 == nil || pkt.Value10 == nil || *pkt.Value10 != sender.ID {
		return false
	}
	targetID := *pkt.Value2

	if room, ok := h.w.GetRoom(targetID); ok {
		h.w.SetUserRoom(sender.ID, room.ID)
		broadcastTo(h.w.Users(), protocol.New(protocol.CodeJoin).WithValue2(targetID).WithValue10(sender.ID), sender.ID)
		h.reply(protocol.New(protocol.CodeJoinReply).WithError(0))
		return true
	}

	if game, ok := h.w.GetGame(targetID); ok && game.RoomID == sender.RoomID() {
		// Joining a game keeps the user in its room (§4.6).
		broadcastTo(h.w.Users(), protocol.New(protocol.CodeJoin).WithValue2(targetID).WithValue10(sender.ID), sender.ID)
		h.reply(protocol.New(protocol.CodeJoinReply).WithError(0))
		return true
	}

	h.reply(protocol.New(protocol.CodeJoinReply).WithError(1))
	return true
}

func (h *handler) handleLeave(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value10 == nil || *pkt.Value10 != sender.ID || pkt.Value2 == nil {
		return false
	}
	roomID := *pkt.Value2
	if roomID != sender.RoomID() {
		h.reply(protocol.New(protocol.CodeLeaveReply).WithError(1))
		return true
	}

	h.leaveRoom(sender, roomID)
	h.w.SetUserRoom(sender.ID, 0)
	h.reply(protocol.New(protocol.CodeLeaveReply).WithError(0))
	return true
}

// leaveRoom implements the shared closure of §4.5.1 step 3 for a user
// that remains connected but is leaving roomID.
func (h *handler) leaveRoom(sender *world.User, roomID uint32) {
	empty := len(h.w.GamesInRoom(roomID)) == 0
	if empty {
		for _, u := range h.w.UsersInRoom(roomID) {
			if u.ID != sender.ID {
				empty = false
				break
			}
		}
	}
	if empty {
		if _, ok := h.w.RemoveRoom(roomID); ok {
			broadcastTo(h.w.Users(), protocol.New(protocol.CodeClose).WithValue10(roomID), 0)
		}
	}
	broadcastTo(h.w.Users(), protocol.New(protocol.CodeLeave).WithValue2(roomID).WithValue10(sender.ID), 0)
}

func (h *handler) handleClose(pkt *protocol.Packet) bool {
	if pkt.Value10 == nil {
		return false
	}
	// The server alone decides when rooms actually die; always ack (§4.6, §9).
	h.reply(protocol.New(protocol.CodeCloseReply).WithError(0))
	return true
}

func (h *handler) handleCreateGame(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value1 == nil || *pkt.Value1 != 0 || pkt.Value2 == nil || *pkt.Value2 != sender.RoomID() ||
		pkt.Value4 == nil || *pkt.Value4 != createGameValue4 ||
		pkt.Data == nil || pkt.Name == nil || pkt.SessionInfo == nil {
		return false
	}

	addr, err := netip.ParseAddr(*pkt.Data)
	if err != nil || addr != sender.Address {
		h.reply(protocol.New(protocol.CodeCreateGameReply).WithValue1(0).WithError(2))
		sendTo(sender, protocol.New(protocol.CodeChatRoom).WithData(cannotHostNotice))
		return true
	}

	id := h.w.NextID()
	si := *pkt.SessionInfo
	si.Type = protocol.SessionTypeGame
	game := world.NewGame(id, sender.Name, si, sender.RoomID(), sender.Address)
	h.w.AddGame(game)

	notice := protocol.New(protocol.CodeCreateGame).
		WithValue1(id).WithValue2(sender.RoomID()).WithValue4(createGameValue4).
		WithName(sender.Name).WithData(*pkt.Data).WithSessionInfo(si)
	broadcastTo(h.w.Users(), notice, sender.ID)

	h.reply(protocol.New(protocol.CodeCreateGameReply).WithValue1(id).WithError(0))
	return true
}

func (h *handler) handleConnectGame(pkt *protocol.Packet, sender *world.User) bool {
	if pkt.Value0 == nil {
		return false
	}
	if game, ok := h.w.GetGame(*pkt.Value0); ok && game.RoomID == sender.RoomID() {
		h.reply(protocol.New(protocol.CodeConnectGameReply).WithData(game.HostAddress.String()).WithError(0))
		return true
	}
	h.reply(protocol.New(protocol.CodeConnectGameReply).WithData("").WithError(1))
	return true
}
