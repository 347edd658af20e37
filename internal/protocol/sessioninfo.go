package protocol

import (
	"fmt"

	"github.com/wormsnet/lobbyserver/internal/codec"
)

// SessionInfoSize is the fixed wire size of a SessionInfo sub-record.
const SessionInfoSize = 50

const (
	crc1Magic      uint32 = 0x17171717
	crc2Magic      uint32 = 0x02010101
	alwaysOneValue uint8  = 1
	alwaysZeroValue uint8 = 0
	paddingSize            = 35

	// ServerGameRelease is the game_version and game_release value the
	// server writes into every outbound SessionInfo, including records
	// relayed from clients (§3 SessionInfo).
	ServerGameRelease uint8 = 49
)

// SessionType identifies what kind of entity a SessionInfo describes.
type SessionType uint8

const (
	SessionTypeRoom SessionType = 1
	SessionTypeGame SessionType = 4
	SessionTypeUser SessionType = 5
)

// SessionAccess controls visibility/join rules for rooms and games.
type SessionAccess uint8

const (
	SessionAccessPublic    SessionAccess = 1
	SessionAccessProtected SessionAccess = 2
)

// SessionInfo is the 50-byte integrity-checked sub-record describing a
// nation/version/type/access quadruple, always little-endian on the wire.
type SessionInfo struct {
	Nation       Nation
	GameVersion  uint8
	GameRelease  uint8
	Type         SessionType
	Access       SessionAccess
}

// NewSessionInfo builds a SessionInfo with the server-mandated version
// fields already populated.
func NewSessionInfo(nation Nation, typ SessionType, access SessionAccess) SessionInfo {
	return SessionInfo{
		Nation:      nation,
		GameVersion: ServerGameRelease,
		GameRelease: ServerGameRelease,
		Type:        typ,
		Access:      access,
	}
}

// Write serialises the SessionInfo as exactly SessionInfoSize bytes,
// writing ServerGameRelease as both game_version and game_release of
// every outbound record.
func (si SessionInfo) Write(w *codec.Writer) {
	w.WriteU32(crc1Magic)
	w.WriteU32(crc2Magic)
	w.WriteU8(uint8(si.Nation))
	w.WriteU8(ServerGameRelease)
	w.WriteU8(ServerGameRelease)
	w.WriteU8(uint8(si.Type))
	w.WriteU8(uint8(si.Access))
	w.WriteU8(alwaysOneValue)
	w.WriteU8(alwaysZeroValue)
	w.WriteZero(paddingSize)
}

// ReadSessionInfo parses and validates a 50-byte SessionInfo. Any
// sentinel mismatch (crc1, crc2, always_one, always_zero, non-zero
// padding) or out-of-range nation is a fatal InvalidSessionInfo error.
func ReadSessionInfo(r *codec.Reader) (SessionInfo, error) {
	var si SessionInfo

	raw, err := r.ReadBytes(SessionInfoSize)
	if err != nil {
		return si, err
	}
	sub := codec.NewReader(raw)

	crc1, _ := sub.ReadU32()
	crc2, _ := sub.ReadU32()
	if crc1 != crc1Magic || crc2 != crc2Magic {
		return si, fmt.Errorf("%w: bad session-info magic", ErrInvalidSessionInfo)
	}

	nation, _ := sub.ReadU8()
	gameVersion, _ := sub.ReadU8()
	gameRelease, _ := sub.ReadU8()
	typ, _ := sub.ReadU8()
	access, _ := sub.ReadU8()
	alwaysOne, _ := sub.ReadU8()
	alwaysZero, _ := sub.ReadU8()
	padding, _ := sub.ReadBytes(paddingSize)

	if !Nation(nation).Valid() {
		return si, fmt.Errorf("%w: nation %d out of range", ErrInvalidSessionInfo, nation)
	}
	if alwaysOne != alwaysOneValue {
		return si, fmt.Errorf("%w: always_one = %d", ErrInvalidSessionInfo, alwaysOne)
	}
	if alwaysZero != alwaysZeroValue {
		return si, fmt.Errorf("%w: always_zero = %d", ErrInvalidSessionInfo, alwaysZero)
	}
	for _, b := range padding {
		if b != 0 {
			return si, fmt.Errorf("%w: non-zero padding", ErrInvalidSessionInfo)
		}
	}

	si = SessionInfo{
		Nation:      Nation(nation),
		GameVersion: gameVersion,
		GameRelease: gameRelease,
		Type:        SessionType(typ),
		Access:      SessionAccess(access),
	}
	return si, nil
}
