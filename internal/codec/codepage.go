package codec

import (
	"golang.org/x/text/encoding/charmap"
)

// legacyPage is the primary 8-bit code page used by the original client
// (Cyrillic Windows-1251). Encode writes any rune outside the table as
// '?' (0x3F) instead of erroring, matching the legacy client's lossy
// behaviour.
var legacyPage = charmap.Windows1251

// Decode converts legacy-encoded bytes to UTF-8 text. Windows-1251 maps
// every byte 0x00-0xFF to a valid code point, so decoding never fails.
func Decode(b []byte) string {
	s, err := legacyPage.NewDecoder().String(string(b))
	if err != nil {
		// Unreachable for Windows-1251 (total single-byte charset), but
		// fall back to the raw bytes rather than losing data silently.
		return string(b)
	}
	return s
}

// Encode converts UTF-8 text to legacy-encoded bytes. Code points with
// no Windows-1251 representation become '?' (0x3F).
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := legacyPage.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
