package protocol

// shrinkThreshold and shrinkOccupancy implement §4.3's "shrink when idle"
// rule: once the buffer has grown past shrinkThreshold, it is compacted
// back to fit whenever occupancy drops below 1/shrinkOccupancy of its
// capacity.
const (
	shrinkThreshold = 16 * 1024
	shrinkOccupancy = 4
)

// FrameReader incrementally accumulates bytes read from a single
// connection and hands back fully-parsed packets. It is strictly owned
// by its session — no concurrent callers.
type FrameReader struct {
	buf []byte
}

// NewFrameReader returns an empty FrameReader.
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Append copies incoming socket bytes into the internal buffer.
func (f *FrameReader) Append(b []byte) {
	f.buf = append(f.buf, b...)
}

// TryRead attempts to parse one packet out of the accumulated buffer.
//
//   - On a complete parse, the consumed bytes are dropped from the
//     buffer and the packet is returned.
//   - On a partial parse (not enough bytes yet), the buffer is left
//     untouched and (nil, nil) is returned.
//   - On a fatal parse error, the error is returned as-is; the session
//     must terminate per §7 and the buffer is left untouched.
func (f *FrameReader) TryRead() (*Packet, error) {
	pkt, n, err := Decode(f.buf)
	if err != nil {
		if Fatal(err) {
			return nil, err
		}
		// Partial: not enough bytes yet, nothing consumed.
		return nil, nil
	}

	f.buf = f.buf[n:]
	f.shrinkIfIdle()
	return pkt, nil
}

// shrinkIfIdle reallocates the buffer to fit its live contents once
// capacity has grown large and occupancy has dropped, bounding idle
// per-connection memory (§4.3).
func (f *FrameReader) shrinkIfIdle() {
	if cap(f.buf) <= shrinkThreshold {
		return
	}
	if len(f.buf)*shrinkOccupancy >= cap(f.buf) {
		return
	}
	shrunk := make([]byte, len(f.buf))
	copy(shrunk, f.buf)
	f.buf = shrunk
}

// Len reports the number of unparsed bytes currently buffered.
func (f *FrameReader) Len() int { return len(f.buf) }
