package protocol

import (
	"errors"
	"fmt"

	"github.com/wormsnet/lobbyserver/internal/codec"
)

// Code is a recognised packet opcode (§4.2).
type Code uint32

const (
	CodeListRooms        Code = 200
	CodeListItem         Code = 350
	CodeListEnd          Code = 351
	CodeListUsers        Code = 400
	CodeListGames        Code = 500
	CodeLogin            Code = 600
	CodeLoginReply       Code = 601
	CodeCreateRoom       Code = 700
	CodeCreateRoomReply  Code = 701
	CodeJoin             Code = 800
	CodeJoinReply        Code = 801
	CodeLeave            Code = 900
	CodeLeaveReply       Code = 901
	CodeDisconnectUser   Code = 1000
	CodeClose            Code = 1100
	CodeCloseReply       Code = 1101
	CodeCreateGame       Code = 1200
	CodeCreateGameReply  Code = 1201
	CodeChatRoom         Code = 1300
	CodeChatRoomReply    Code = 1301
	CodeConnectGame      Code = 1326
	CodeConnectGameReply Code = 1327
)

var knownCodes = map[Code]struct{}{
	CodeListRooms: {}, CodeListItem: {}, CodeListEnd: {}, CodeListUsers: {},
	CodeListGames: {}, CodeLogin: {}, CodeLoginReply: {}, CodeCreateRoom: {},
	CodeCreateRoomReply: {}, CodeJoin: {}, CodeJoinReply: {}, CodeLeave: {},
	CodeLeaveReply: {}, CodeDisconnectUser: {}, CodeClose: {}, CodeCloseReply: {},
	CodeCreateGame: {}, CodeCreateGameReply: {}, CodeChatRoom: {}, CodeChatRoomReply: {},
	CodeConnectGame: {}, CodeConnectGameReply: {},
}

// Flag bits. Wire order of the fields they gate is NOT bit-index order —
// value10 is serialised right after value4, ahead of data_length (§6).
const (
	flagValue0  = 1 << 0
	flagValue1  = 1 << 1
	flagValue2  = 1 << 2
	flagValue3  = 1 << 3
	flagValue4  = 1 << 4
	flagDataLen = 1 << 5
	flagData    = 1 << 6
	flagError   = 1 << 7
	flagName    = 1 << 8
	flagSession = 1 << 9
	flagValue10 = 1 << 10
)

const (
	// MaxDataLength is the wire limit for data_length, NUL included.
	MaxDataLength = 0x200
	// MaxNameLength is the wire width (and limit) of the name field.
	MaxNameLength = 20
)

// Packet is a decoded frame. Every field beyond Code is optional; a nil
// pointer means the corresponding flag bit was unset.
type Packet struct {
	Code Code

	Value0  *uint32
	Value1  *uint32
	Value2  *uint32
	Value3  *uint32
	Value4  *uint32
	Value10 *uint32

	Data *string

	ErrorCode *uint32

	Name *string

	SessionInfo *SessionInfo
}

func u32p(v uint32) *uint32 { return &v }

// With* builders are used by handlers constructing requests/replies.
func (p *Packet) WithValue0(v uint32) *Packet  { p.Value0 = u32p(v); return p }
func (p *Packet) WithValue1(v uint32) *Packet  { p.Value1 = u32p(v); return p }
func (p *Packet) WithValue2(v uint32) *Packet  { p.Value2 = u32p(v); return p }
func (p *Packet) WithValue3(v uint32) *Packet  { p.Value3 = u32p(v); return p }
func (p *Packet) WithValue4(v uint32) *Packet  { p.Value4 = u32p(v); return p }
func (p *Packet) WithValue10(v uint32) *Packet { p.Value10 = u32p(v); return p }
func (p *Packet) WithData(s string) *Packet    { p.Data = &s; return p }
func (p *Packet) WithError(v uint32) *Packet   { p.ErrorCode = u32p(v); return p }
func (p *Packet) WithName(s string) *Packet    { p.Name = &s; return p }
func (p *Packet) WithSessionInfo(si SessionInfo) *Packet {
	p.SessionInfo = &si
	return p
}

// New returns an empty Packet for code, ready for With* chaining.
func New(code Code) *Packet { return &Packet{Code: code} }

// flags computes the wire flag mask implied by the populated fields.
func (p *Packet) flags() uint32 {
	var f uint32
	if p.Value0 != nil {
		f |= flagValue0
	}
	if p.Value1 != nil {
		f |= flagValue1
	}
	if p.Value2 != nil {
		f |= flagValue2
	}
	if p.Value3 != nil {
		f |= flagValue3
	}
	if p.Value4 != nil {
		f |= flagValue4
	}
	if p.Value10 != nil {
		f |= flagValue10
	}
	if p.Data != nil {
		f |= flagDataLen | flagData
	}
	if p.ErrorCode != nil {
		f |= flagError
	}
	if p.Name != nil {
		f |= flagName
	}
	if p.SessionInfo != nil {
		f |= flagSession
	}
	return f
}

// Encode serialises p into a fresh byte slice.
func (p *Packet) Encode() ([]byte, error) {
	w := codec.NewWriter(nil)
	w.WriteU32(uint32(p.Code))
	w.WriteU32(p.flags())

	if p.Value0 != nil {
		w.WriteU32(*p.Value0)
	}
	if p.Value1 != nil {
		w.WriteU32(*p.Value1)
	}
	if p.Value2 != nil {
		w.WriteU32(*p.Value2)
	}
	if p.Value3 != nil {
		w.WriteU32(*p.Value3)
	}
	if p.Value4 != nil {
		w.WriteU32(*p.Value4)
	}
	if p.Value10 != nil {
		w.WriteU32(*p.Value10)
	}
	if p.Data != nil {
		encoded := append(codec.Encode(*p.Data), 0)
		if len(encoded) > MaxDataLength {
			return nil, fmt.Errorf("%w: data %d bytes exceeds %d", ErrOversizedField, len(encoded), MaxDataLength)
		}
		w.WriteU32(uint32(len(encoded)))
		w.WriteBytes(encoded)
	}
	if p.ErrorCode != nil {
		w.WriteU32(*p.ErrorCode)
	}
	if p.Name != nil {
		encoded := codec.Encode(*p.Name)
		if len(encoded) > MaxNameLength {
			return nil, fmt.Errorf("%w: name %d bytes exceeds %d", ErrOversizedField, len(encoded), MaxNameLength)
		}
		field := make([]byte, MaxNameLength)
		copy(field, encoded)
		w.WriteBytes(field)
	}
	if p.SessionInfo != nil {
		p.SessionInfo.Write(w)
	}

	return w.Bytes(), nil
}

// Decode attempts to parse one packet from the start of buf.
//
// On success it returns the packet and the number of bytes consumed.
// If buf holds an incomplete frame, it returns (nil, 0, ErrShortRead) —
// the caller must not consume anything and should retry once more bytes
// arrive. Any other error is fatal and the owning session must close (§7).
func Decode(buf []byte) (*Packet, int, error) {
	r := codec.NewReader(buf)

	codeRaw, err := r.ReadU32()
	if err != nil {
		return nil, 0, ErrShortRead
	}
	code := Code(codeRaw)
	if _, ok := knownCodes[code]; !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCode, codeRaw)
	}

	flags, err := r.ReadU32()
	if err != nil {
		return nil, 0, ErrShortRead
	}

	pkt := &Packet{Code: code}

	readValue := func(bit uint32) (*uint32, error) {
		if flags&bit == 0 {
			return nil, nil
		}
		v, err := r.ReadU32()
		if err != nil {
			return nil, ErrShortRead
		}
		return &v, nil
	}

	shortRead := func(err error) bool {
		return errors.Is(err, ErrShortRead) || errors.Is(err, codec.ErrShortRead)
	}

	if pkt.Value0, err = readValue(flagValue0); err != nil {
		return nil, 0, err
	}
	if pkt.Value1, err = readValue(flagValue1); err != nil {
		return nil, 0, err
	}
	if pkt.Value2, err = readValue(flagValue2); err != nil {
		return nil, 0, err
	}
	if pkt.Value3, err = readValue(flagValue3); err != nil {
		return nil, 0, err
	}
	if pkt.Value4, err = readValue(flagValue4); err != nil {
		return nil, 0, err
	}
	if pkt.Value10, err = readValue(flagValue10); err != nil {
		return nil, 0, err
	}

	if flags&flagDataLen != 0 {
		dataLen, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrShortRead
		}
		if dataLen > MaxDataLength {
			return nil, 0, fmt.Errorf("%w: data_length %d exceeds %d", ErrOversizedField, dataLen, MaxDataLength)
		}
		if flags&flagData != 0 {
			raw, err := r.ReadBytes(int(dataLen))
			if err != nil {
				return nil, 0, ErrShortRead
			}
			if len(raw) == 0 || raw[len(raw)-1] != 0 {
				return nil, 0, fmt.Errorf("%w: data missing NUL terminator", ErrOversizedField)
			}
			s := codec.Decode(raw[:len(raw)-1])
			pkt.Data = &s
		}
	}

	if flags&flagError != 0 {
		v, err := r.ReadU32()
		if err != nil {
			return nil, 0, ErrShortRead
		}
		pkt.ErrorCode = &v
	}

	if flags&flagName != 0 {
		s, err := r.ReadFixedString(MaxNameLength)
		if err != nil {
			if shortRead(err) {
				return nil, 0, ErrShortRead
			}
			return nil, 0, err
		}
		pkt.Name = &s
	}

	if flags&flagSession != 0 {
		si, err := ReadSessionInfo(r)
		if err != nil {
			if shortRead(err) {
				return nil, 0, ErrShortRead
			}
			return nil, 0, err
		}
		pkt.SessionInfo = &si
	}

	return pkt, r.Pos(), nil
}

// cached empty frame, precomputed once per §4.2's guidance.
var listEndBytes = mustEncode(New(CodeListEnd))

func mustEncode(p *Packet) []byte {
	b, err := p.Encode()
	if err != nil {
		panic(err) // unreachable: fixed frames have no variable-length fields
	}
	return b
}

// ListEndBytes returns the precomputed, reusable ListEnd frame bytes.
func ListEndBytes() []byte { return listEndBytes }
