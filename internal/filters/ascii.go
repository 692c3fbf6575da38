package filters

import (
	"encoding/hex"
	"fmt"
)

// ASCIIHexDecode decodes hexadecimal-encoded ASCII data. Whitespace is
// ignored and the stream may be terminated early with '>'. An odd final
// digit is padded with a trailing zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	cleaned := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '>' {
			break
		}
		if isHexDigit(b) {
			cleaned = append(cleaned, b)
		} else if !isASCIIWhitespace(b) {
			return nil, fmt.Errorf("invalid character %q in hex stream", b)
		}
	}

	if len(cleaned)%2 == 1 {
		cleaned = append(cleaned, '0')
	}

	out := make([]byte, len(cleaned)/2)
	if _, err := hex.Decode(out, cleaned); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 encoded data. Groups of five characters
// in the range '!'..'u' encode four bytes; 'z' is shorthand for four zero
// bytes, and "~>" terminates the stream.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out []byte
	var group [5]byte
	groupLen := 0

	for i := 0; i < len(data); i++ {
		b := data[i]
		if isASCIIWhitespace(b) {
			continue
		}
		if b == '~' {
			break
		}
		if b == 'z' {
			if groupLen != 0 {
				return nil, fmt.Errorf("'z' inside a group at offset %d", i)
			}
			out = append(out, 0, 0, 0, 0)
			continue
		}
		if b < '!' || b > 'u' {
			return nil, fmt.Errorf("invalid character %q at offset %d", b, i)
		}
		group[groupLen] = b
		groupLen++
		if groupLen == 5 {
			out = appendASCII85Group(out, group[:], 5)
			groupLen = 0
		}
	}

	if groupLen == 1 {
		return nil, fmt.Errorf("truncated final group")
	}
	if groupLen > 1 {
		// A partial group of n chars encodes n-1 bytes. Pad with 'u'.
		for i := groupLen; i < 5; i++ {
			group[i] = 'u'
		}
		out = appendASCII85Group(out, group[:], groupLen)
	}

	return out, nil
}

func appendASCII85Group(out []byte, group []byte, n int) []byte {
	var value uint32
	for _, c := range group {
		value = value*85 + uint32(c-'!')
	}
	decoded := [4]byte{
		byte(value >> 24),
		byte(value >> 16),
		byte(value >> 8),
		byte(value),
	}
	return append(out, decoded[:n-1]...)
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
