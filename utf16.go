package ewf

import "unicode/utf16"

// utf8ToUTF16 renders s as a BOM-prefixed little-endian UTF-16 byte stream,
// the encoding EnCase-family readers expect for the "header2" section.
// Mirrors asalih-go-ewf's shared.UTF8ToUTF16.
func utf8ToUTF16(s string) []byte {
	runes := utf16.Encode([]rune(s))
	out := []byte{0xFF, 0xFE}
	for _, r := range runes {
		out = append(out, byte(r&0xFF), byte(r>>8))
	}
	return out
}
