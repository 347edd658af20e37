package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormsnet/lobbyserver/internal/codec"
)

func TestSessionInfoRoundTrip(t *testing.T) {
	si := NewSessionInfo(NationCustomTeam17, SessionTypeGame, SessionAccessProtected)

	w := codec.NewWriter(nil)
	si.Write(w)
	assert.Equal(t, SessionInfoSize, w.Len())

	got, err := ReadSessionInfo(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, si.Nation, got.Nation)
	assert.Equal(t, SessionTypeGame, got.Type)
	assert.Equal(t, SessionAccessProtected, got.Access)
	assert.Equal(t, ServerGameRelease, got.GameRelease)
}

func TestSessionInfoRejectsSentinelTampering(t *testing.T) {
	base := func() []byte {
		w := codec.NewWriter(nil)
		NewSessionInfo(NationNone, SessionTypeRoom, SessionAccessPublic).Write(w)
		return w.Bytes()
	}

	cases := map[string]func([]byte){
		"crc1":        func(b []byte) { b[0] ^= 0xFF },
		"crc2":        func(b []byte) { b[4] ^= 0xFF },
		"always_one":  func(b []byte) { b[13] = 0 },
		"always_zero": func(b []byte) { b[14] = 1 },
		"padding":     func(b []byte) { b[20] = 1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := base()
			mutate(b)
			_, err := ReadSessionInfo(codec.NewReader(b))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSessionInfo)
		})
	}
}

func TestSessionInfoRejectsInvalidNation(t *testing.T) {
	w := codec.NewWriter(nil)
	NewSessionInfo(NationNone, SessionTypeUser, SessionAccessPublic).Write(w)
	b := w.Bytes()
	b[8] = MaxNation + 1 // nation byte, out of range

	_, err := ReadSessionInfo(codec.NewReader(b))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSessionInfo)
}
