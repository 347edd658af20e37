package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodepageASCIIRoundTrip(t *testing.T) {
	in := "Worms2D lobby"
	assert.Equal(t, in, Decode(Encode(in)))
}

func TestCodepageCyrillicRoundTrip(t *testing.T) {
	in := "Привет"
	assert.Equal(t, in, Decode(Encode(in)))
}

func TestCodepageUnmappableBecomesQuestionMark(t *testing.T) {
	// U+1F600 (an emoji) has no Windows-1251 representation.
	encoded := Encode("a\U0001F600b")
	assert.Equal(t, []byte{'a', '?', 'b'}, encoded)
}
