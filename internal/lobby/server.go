package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/wormsnet/lobbyserver/internal/config"
	"github.com/wormsnet/lobbyserver/internal/world"
)

// Server is the Acceptor of §4.7: it binds the listening socket, runs
// admission control against a live-connection counter, and spawns a
// Session per accepted connection.
type Server struct {
	cfg config.Server
	w   *world.World

	live atomic.Int64

	mu       sync.Mutex
	listener net.Listener
}

// NewServer returns a Server bound to w, not yet listening.
func NewServer(cfg config.Server, w *world.World) *Server {
	return &Server{cfg: cfg, w: w}
}

// LiveConnections returns the number of currently accepted sockets.
func (s *Server) LiveConnections() int64 { return s.live.Load() }

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve runs the accept loop over an existing listener, useful for
// tests that bind an ephemeral port themselves.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	slog.Info("lobby server listening", "address", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			slog.Error("accept failed", "error", err)
			continue
		}

		if s.live.Load() >= int64(s.cfg.MaxConnections) {
			slog.Warn("connection limit reached, rejecting", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}
		s.live.Add(1)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.live.Add(-1)
			s.handleConnection(ctx, conn)
		}()
	}

	wg.Wait()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	session, err := NewSession(conn, s.w, s.cfg)
	if err != nil {
		slog.Warn("rejecting connection", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	session.Run(ctx)
}
