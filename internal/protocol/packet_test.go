package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePackets(t *testing.T) []*Packet {
	t.Helper()
	si := NewSessionInfo(NationNone, SessionTypeUser, SessionAccessPublic)
	return []*Packet{
		New(CodeListEnd),
		New(CodeLoginReply).WithValue1(0x1000).WithError(0),
		New(CodeLogin).WithValue1(1).WithValue4(0).WithName("alice").WithSessionInfo(si),
		New(CodeChatRoom).WithValue0(1).WithValue3(2).WithData("GRP:[ alice ]  hello"),
		New(CodeCreateGameReply).WithValue1(0).WithError(2),
		New(CodeListItem).WithValue1(7).WithName("lobby").WithData("").WithSessionInfo(si),
	}
}

func TestPacketRoundTrip(t *testing.T) {
	for _, p := range samplePackets(t) {
		buf, err := p.Encode()
		require.NoError(t, err)

		got, n, err := Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, p, got)
	}
}

func TestPacketPartialOnEveryStrictPrefix(t *testing.T) {
	for _, p := range samplePackets(t) {
		buf, err := p.Encode()
		require.NoError(t, err)

		for i := 0; i < len(buf); i++ {
			_, _, err := Decode(buf[:i])
			assert.ErrorIs(t, err, ErrShortRead, "prefix length %d of %d", i, len(buf))
		}
	}
}

func TestPacketFlagsMatchPopulatedFields(t *testing.T) {
	p := New(CodeJoin).WithValue2(5).WithValue10(9)
	assert.Equal(t, uint32(flagValue2|flagValue10), p.flags())

	withData := New(CodeChatRoom).WithData("hi")
	assert.Equal(t, uint32(flagDataLen|flagData), withData.flags())
}

func TestUnknownCodeIsFatal(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0, 0, 0, 0, 0, 0}
	_, _, err := Decode(buf)
	require.Error(t, err)
	assert.True(t, Fatal(err))
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestOversizedNameIsFatal(t *testing.T) {
	longName := make([]byte, 64)
	for i := range longName {
		longName[i] = 'a'
	}
	p := New(CodeLogin).WithName(string(longName))
	_, err := p.Encode()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOversizedField)
}

func TestDataLengthIsEncodedLengthPlusOne(t *testing.T) {
	p := New(CodeChatRoom).WithData("hello")
	buf, err := p.Encode()
	require.NoError(t, err)

	got, _, err := Decode(buf)
	require.NoError(t, err)
	require.NotNil(t, got.Data)
	assert.Equal(t, "hello", *got.Data)

	// data_length follows code and flags: 5 encoded bytes plus the NUL.
	assert.Equal(t, []byte{6, 0, 0, 0}, buf[8:12])

	// Last byte of the data region on the wire must be NUL.
	assert.Equal(t, byte(0), buf[len(buf)-1])
}

func TestListEndBytesIsCachedAndReusable(t *testing.T) {
	a := ListEndBytes()
	b := ListEndBytes()
	assert.Same(t, &a[0], &b[0])

	pkt, n, err := Decode(a)
	require.NoError(t, err)
	assert.Equal(t, len(a), n)
	assert.Equal(t, CodeListEnd, pkt.Code)
}
