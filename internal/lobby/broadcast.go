package lobby

import (
	"log/slog"

	"github.com/wormsnet/lobbyserver/internal/protocol"
	"github.com/wormsnet/lobbyserver/internal/world"
)

// broadcastTo encodes pkt once and enqueues it on every user's session
// except the one whose ID equals exceptID (pass 0 to exclude none).
// Sends are fire-and-forget: a slow or dead peer never blocks the
// caller (§5, §4.5.2).
func broadcastTo(users []*world.User, pkt *protocol.Packet, exceptID uint32) {
	buf, err := pkt.Encode()
	if err != nil {
		slog.Error("encoding broadcast packet", "code", pkt.Code, "error", err)
		return
	}
	for _, u := range users {
		if u.ID == exceptID {
			continue
		}
		if u.Session != nil {
			u.Session.Send(buf)
		}
	}
}

// sendTo encodes pkt and enqueues it on a single user's session.
func sendTo(u *world.User, pkt *protocol.Packet) {
	buf, err := pkt.Encode()
	if err != nil {
		slog.Error("encoding packet", "code", pkt.Code, "error", err)
		return
	}
	if u.Session != nil {
		u.Session.Send(buf)
	}
}
