package lobby

import "github.com/wormsnet/lobbyserver/internal/protocol"

// disconnect runs the four-step teardown cascade for this session's
// user, atomically from the user's perspective (§4.5.1). It is a
// no-op if the session never reached Active (userID is still 0).
func (s *Session) disconnect() {
	userID := s.UserID()
	if userID == 0 {
		return
	}

	u, ok := s.w.RemoveUser(userID)
	if !ok {
		return
	}
	roomID := u.RoomID()

	if g, ok := s.w.GameByName(u.Name); ok {
		s.w.RemoveGame(g.ID)
		peers := s.w.Users()
		broadcastTo(peers, protocol.New(protocol.CodeLeave).WithValue2(g.ID).WithValue10(userID), 0)
		broadcastTo(peers, protocol.New(protocol.CodeClose).WithValue10(g.ID), 0)
	}

	if roomID != 0 {
		if s.w.RoomIsEmpty(roomID) {
			if _, ok := s.w.RemoveRoom(roomID); ok {
				broadcastTo(s.w.Users(), protocol.New(protocol.CodeClose).WithValue10(roomID), 0)
			}
		}
		broadcastTo(s.w.Users(), protocol.New(protocol.CodeLeave).WithValue2(roomID).WithValue10(userID), 0)
	}

	broadcastTo(s.w.Users(), protocol.New(protocol.CodeDisconnectUser).WithValue10(userID), 0)
}
