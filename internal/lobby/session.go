// Package lobby implements the connection state machine and packet
// handler that sit on top of the protocol codec and world state: the
// per-connection login handshake, receive/dispatch loop, outbound
// writer, and the semantic rules that decide who receives what.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wormsnet/lobbyserver/internal/config"
	"github.com/wormsnet/lobbyserver/internal/protocol"
	"github.com/wormsnet/lobbyserver/internal/world"
)

// State is a Session's position in the connection state machine (§4.5).
type State int32

const (
	StateAccepted State = iota
	StateAuthenticating
	StateActive
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const readBufSize = 4096

// Session is one live TCP connection and its associated per-connection
// state (§4.5). It satisfies world.Sender so a logged-in User can hold
// a non-owning back-reference to it for broadcast delivery (§9).
type Session struct {
	conn net.Conn
	addr netip.Addr
	cfg  config.Server
	w    *world.World

	state  atomic.Int32
	userID atomic.Uint32 // 0 until login succeeds

	frame *protocol.FrameReader

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	userNameMu sync.Mutex
	userName   string
}

// NewSession wraps an accepted connection. It does not touch the
// socket; call Run to drive the state machine.
func NewSession(conn net.Conn, w *world.World, cfg config.Server) (*Session, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("splitting remote addr: %w", err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil, fmt.Errorf("parsing remote addr %q: %w", host, err)
	}

	s := &Session{
		conn:    conn,
		addr:    addr,
		cfg:     cfg,
		w:       w,
		frame:   protocol.NewFrameReader(),
		sendCh:  make(chan []byte, cfg.SendQueueSize),
		closeCh: make(chan struct{}),
	}
	s.state.Store(int32(StateAccepted))
	return s, nil
}

// State returns the session's current state.
func (s *Session) State() State { return State(s.state.Load()) }

// UserID returns the bound User's ID, or 0 if not yet authenticated.
func (s *Session) UserID() uint32 { return s.userID.Load() }

// Addr returns the remote IPv4 address of the connection.
func (s *Session) Addr() netip.Addr { return s.addr }

// Send enqueues an already-encoded frame for async delivery.
// Implements world.Sender. Non-blocking: a full queue disconnects the
// slow session rather than stalling the sender (§5 backpressure).
func (s *Session) Send(frame []byte) {
	select {
	case s.sendCh <- frame:
	default:
		slog.Warn("session send queue full, disconnecting", "addr", s.addr)
		s.closeAsync()
		_ = s.conn.Close()
	}
}

// closeAsync signals the writer to stop without blocking the caller.
func (s *Session) closeAsync() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}

// Run drives the full state machine for one accepted connection:
// Accepted -> Authenticating -> Active -> Draining -> Closed.
// It returns once the connection is fully torn down.
func (s *Session) Run(ctx context.Context) {
	if tcpConn, ok := s.conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetKeepAlive(true)
	}

	go s.writePump()
	defer func() {
		s.closeAsync()
		_ = s.conn.Close()
	}()

	user, ok := s.authenticate()
	if !ok {
		s.state.Store(int32(StateClosed))
		return
	}

	s.state.Store(int32(StateActive))
	s.setUserName(user.Name)
	s.runActive(ctx)

	s.state.Store(int32(StateDraining))
	s.disconnect()
	s.state.Store(int32(StateClosed))
}

func (s *Session) setUserName(name string) {
	s.userNameMu.Lock()
	s.userName = name
	s.userNameMu.Unlock()
}

func (s *Session) UserName() string {
	s.userNameMu.Lock()
	defer s.userNameMu.Unlock()
	return s.userName
}

// authenticate implements the Accepted -> Authenticating transition
// (§4.5). It reads at most one packet within the login deadline.
func (s *Session) authenticate() (*world.User, bool) {
	s.state.Store(int32(StateAuthenticating))

	deadline := time.Now().Add(s.cfg.LoginTimeout.D())
	pkt, err := s.readPacket(deadline)
	if err != nil {
		slog.Debug("login read failed", "addr", s.addr, "error", err)
		return nil, false
	}

	if pkt.Code != protocol.CodeLogin || pkt.Value1 == nil || pkt.Value4 == nil || pkt.Name == nil || pkt.SessionInfo == nil {
		s.sendLoginReject()
		return nil, false
	}

	name := *pkt.Name
	if name == "" {
		s.sendLoginReject()
		return nil, false
	}
	if _, exists := s.w.UserByName(name); exists {
		s.sendLoginReject()
		return nil, false
	}

	id := s.w.NextID()
	si := *pkt.SessionInfo
	si.Type = protocol.SessionTypeUser
	user := world.NewUser(id, name, si, s.addr, s)

	// Broadcast to all existing users BEFORE adding the new one, so it
	// does not receive its own login notification (§4.5).
	notice := protocol.New(protocol.CodeLogin).WithValue1(id).WithValue4(0).WithName(name).WithSessionInfo(si)
	broadcastTo(s.w.Users(), notice, 0)

	s.w.AddUser(user)
	s.userID.Store(id)

	reply := protocol.New(protocol.CodeLoginReply).WithValue1(id).WithError(0)
	s.writeFrameSync(reply)

	return user, true
}

func (s *Session) sendLoginReject() {
	reply := protocol.New(protocol.CodeLoginReply).WithValue1(0).WithError(1)
	s.writeFrameSync(reply)
}

// writeFrameSync writes pkt directly to the socket, bypassing the
// outbound queue. Used only for the handshake reply, so that a close
// right after a rejection never drops the reply the client is waiting
// on. On a successful login the user is already in the directory when
// this runs, so a broadcast queued by another session can reach the
// socket before the reply.
func (s *Session) writeFrameSync(pkt *protocol.Packet) {
	buf, err := pkt.Encode()
	if err != nil {
		slog.Error("encoding handshake reply", "code", pkt.Code, "error", err)
		return
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return
	}
	if _, err := s.conn.Write(buf); err != nil {
		slog.Debug("handshake reply write failed", "addr", s.addr, "error", err)
	}
}

// runActive is the Active-state read/dispatch loop (§4.5).
func (s *Session) runActive(ctx context.Context) {
	h := &handler{w: s.w, session: s}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		deadline := time.Now().Add(s.cfg.IdleTimeout.D())
		pkt, err := s.readPacket(deadline)
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("client disconnected", "user", s.UserName())
			} else {
				slog.Debug("active read failed", "user", s.UserName(), "error", err)
			}
			return
		}

		if !h.handle(pkt) {
			return
		}
	}
}

// readPacket returns the next fully-parsed packet, reading from the
// socket as needed until the frame reader can parse one or deadline
// passes. Any previously buffered packet is returned before touching
// the socket again.
func (s *Session) readPacket(deadline time.Time) (*protocol.Packet, error) {
	if pkt, err := s.frame.TryRead(); err != nil {
		return nil, err
	} else if pkt != nil {
		return pkt, nil
	}

	buf := make([]byte, readBufSize)
	for {
		if err := s.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.frame.Append(buf[:n])
			if pkt, perr := s.frame.TryRead(); perr != nil {
				return nil, perr
			} else if pkt != nil {
				return pkt, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// sendSync encodes and synchronously enqueues pkt, used for handler
// replies that must be delivered (mirrors the teacher's SendSync).
func (s *Session) sendSync(pkt *protocol.Packet) {
	buf, err := pkt.Encode()
	if err != nil {
		slog.Error("encoding outbound packet", "code", pkt.Code, "error", err)
		return
	}
	s.Send(buf)
}
