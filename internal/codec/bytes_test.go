package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	w.WriteU8(0x17)
	w.WriteU16(0x1234)
	w.WriteU32(0xdeadbeef)
	w.WriteBytes([]byte("abc"))
	w.WriteZero(2)

	r := NewReader(w.Bytes())

	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x17), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	raw, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), raw)

	zeros, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, zeros)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	_, err := r.ReadU32()
	assert.ErrorIs(t, err, ErrShortRead)

	// a failed read must not consume bytes
	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)
}

func TestReadFixedStringStopsAtNUL(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBytes(Encode("alice"))
	w.WriteZero(20 - len("alice"))

	r := NewReader(w.Bytes())
	s, err := r.ReadFixedString(20)
	require.NoError(t, err)
	assert.Equal(t, "alice", s)
	assert.Equal(t, 20, r.Pos())
}

func TestReadCStringPartialWithoutNUL(t *testing.T) {
	r := NewReader([]byte("no terminator here"))
	_, err := r.ReadCString()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestReadCStringConsumesThroughNUL(t *testing.T) {
	data := append(Encode("hello"), 0)
	data = append(data, 0xFF) // trailing byte beyond the string, must not be consumed
	r := NewReader(data)

	s, err := r.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, 1, r.Remaining())
}
