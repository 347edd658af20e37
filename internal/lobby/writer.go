package lobby

import (
	"log/slog"
	"net"
	"time"
)

// maxWriteBatch bounds how many queued frames a single vectored write
// coalesces, per §4.5.2's "recommended <=16".
const maxWriteBatch = 16

const writeDeadline = 30 * time.Second

// writePump is the session's dedicated writer goroutine. It drains
// sendCh in batches and flushes them with a single vectored write when
// more than one frame is queued, falling back to a direct write for
// the common single-frame case. When the queue is empty it sleeps on
// cfg.WriteFlush or until woken by an enqueue or shutdown, whichever
// comes first (§4.5.2).
func (s *Session) writePump() {
	bufs := make(net.Buffers, 0, maxWriteBatch)
	flush := time.NewTimer(s.cfg.WriteFlush.D())
	defer flush.Stop()

	defer func() {
		// Remaining queued buffers are dropped per §4.5.2.
		for {
			select {
			case <-s.sendCh:
			default:
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-s.sendCh:
			if !ok {
				return
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}

			queued := len(s.sendCh)
			if queued == 0 {
				if _, err := s.conn.Write(frame); err != nil {
					slog.Debug("write failed", "user", s.UserName(), "error", err)
					s.closeAsync()
					return
				}
				continue
			}

			bufs = bufs[:0]
			bufs = append(bufs, frame)
			for i := 0; i < queued && i < maxWriteBatch-1; i++ {
				bufs = append(bufs, <-s.sendCh)
			}
			if _, err := bufs.WriteTo(s.conn); err != nil {
				slog.Debug("batch write failed", "user", s.UserName(), "error", err)
				s.closeAsync()
				return
			}

		case <-flush.C:
			flush.Reset(s.cfg.WriteFlush.D())

		case <-s.closeCh:
			return
		}
	}
}
