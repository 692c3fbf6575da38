package font

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/tsawler/ghostink/core"
)

// CMap maps character codes to Unicode text, built from a font's
// ToUnicode stream.
type CMap struct {
	chars      map[uint32]string
	ranges     []cmapRange
	codeLength int // bytes per code from the codespace range, 0 if unknown
}

type cmapRange struct {
	start, end uint32
	dst        []byte
}

// ParseToUnicode decodes and parses a ToUnicode CMap stream.
func ParseToUnicode(stream *core.Stream) (*CMap, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode ToUnicode stream: %w", err)
	}

	return parseCMap(data)
}

// CodeLength returns the code size in bytes declared by the codespace
// range, or 0 when none was found.
func (cm *CMap) CodeLength() int {
	return cm.codeLength
}

// Decode converts a string of character codes to Unicode text.
// Codes without a mapping fall back to the raw byte value.
func (cm *CMap) Decode(data []byte) string {
	codeLen := cm.codeLength
	if codeLen < 1 || codeLen > 4 {
		codeLen = 1
		if cm.looksTwoByte() {
			codeLen = 2
		}
	}

	var result strings.Builder
	for i := 0; i < len(data); {
		remaining := len(data) - i
		n := codeLen
		if n > remaining {
			n = remaining
		}

		var code uint32
		for j := 0; j < n; j++ {
			code = code<<8 | uint32(data[i+j])
		}
		i += n

		if s, ok := cm.lookup(code); ok {
			result.WriteString(s)
		} else if code < 0x110000 {
			result.WriteRune(rune(code))
		}
	}
	return result.String()
}

func (cm *CMap) lookup(code uint32) (string, bool) {
	if s, ok := cm.chars[code]; ok {
		return s, true
	}
	for _, r := range cm.ranges {
		if code >= r.start && code <= r.end {
			return rangeDst(r.dst, code-r.start), true
		}
	}
	return "", false
}

// rangeDst advances a bfrange destination by offset. Destinations are
// UTF-16BE and only the final code unit is incremented, so a surrogate
// pair keeps its high unit.
func rangeDst(dst []byte, offset uint32) string {
	if len(dst) <= 2 {
		return string(rune(bytesToCode(dst) + offset))
	}
	b := make([]byte, len(dst))
	copy(b, dst)
	n := len(b)
	unit := (uint32(b[n-2])<<8 | uint32(b[n-1])) + offset
	b[n-2] = byte(unit >> 8)
	b[n-1] = byte(unit)
	return utf16BEToString(b)
}

// looksTwoByte guesses the code size when no codespace range was
// declared. Any mapping above 0xFF implies multi-byte codes.
func (cm *CMap) looksTwoByte() bool {
	for code := range cm.chars {
		if code > 0xFF {
			return true
		}
	}
	for _, r := range cm.ranges {
		if r.end > 0xFF {
			return true
		}
	}
	return false
}

// parseCMap tokenizes the CMap content and processes the
// codespacerange, bfchar, and bfrange sections.
func parseCMap(data []byte) (*CMap, error) {
	cm := &CMap{chars: make(map[uint32]string)}

	tokens := tokenizeCMap(data)
	for i := 0; i < len(tokens); i++ {
		switch tokens[i].kind {
		case tokKeyword:
			switch tokens[i].text {
			case "begincodespacerange":
				i = cm.parseCodespace(tokens, i+1)
			case "beginbfchar":
				i = cm.parseBfChar(tokens, i+1)
			case "beginbfrange":
				i = cm.parseBfRange(tokens, i+1)
			}
		}
	}

	return cm, nil
}

func (cm *CMap) parseCodespace(tokens []cmapToken, i int) int {
	for i+1 < len(tokens) {
		if tokens[i].kind == tokKeyword {
			return i
		}
		if tokens[i].kind == tokHex && tokens[i+1].kind == tokHex {
			// The low/high pair shares a byte length, which is the
			// code size for this space.
			n := len(tokens[i].bytes)
			if n >= 1 && n <= 4 && n > cm.codeLength {
				cm.codeLength = n
			}
		}
		i += 2
	}
	return i
}

func (cm *CMap) parseBfChar(tokens []cmapToken, i int) int {
	for i+1 < len(tokens) {
		if tokens[i].kind == tokKeyword {
			return i
		}
		if tokens[i].kind == tokHex && tokens[i+1].kind == tokHex {
			code := bytesToCode(tokens[i].bytes)
			cm.chars[code] = utf16BEToString(tokens[i+1].bytes)
		}
		i += 2
	}
	return i
}

func (cm *CMap) parseBfRange(tokens []cmapToken, i int) int {
	for i < len(tokens) {
		if tokens[i].kind == tokKeyword {
			return i
		}
		if i+2 >= len(tokens) || tokens[i].kind != tokHex || tokens[i+1].kind != tokHex {
			i++
			continue
		}

		start := bytesToCode(tokens[i].bytes)
		end := bytesToCode(tokens[i+1].bytes)

		switch tokens[i+2].kind {
		case tokHex:
			cm.ranges = append(cm.ranges, cmapRange{
				start: start,
				end:   end,
				dst:   tokens[i+2].bytes,
			})
			i += 3
		case tokArrayStart:
			// Array form lists one destination per code.
			i += 3
			code := start
			for i < len(tokens) && tokens[i].kind != tokArrayEnd {
				if tokens[i].kind == tokHex && code <= end {
					cm.chars[code] = utf16BEToString(tokens[i].bytes)
					code++
				}
				i++
			}
			if i < len(tokens) {
				i++ // skip ]
			}
		default:
			i += 3
		}
	}
	return i
}

type cmapTokenKind int

const (
	tokKeyword cmapTokenKind = iota
	tokHex
	tokArrayStart
	tokArrayEnd
	tokOther
)

type cmapToken struct {
	kind  cmapTokenKind
	text  string
	bytes []byte
}

// tokenizeCMap splits CMap content into the token kinds the section
// parsers care about. Literal strings, dictionaries, and PostScript
// procedures are reduced to tokOther.
func tokenizeCMap(data []byte) []cmapToken {
	var tokens []cmapToken
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0:
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '<':
			j := i + 1
			var hexDigits []byte
			for j < len(data) && data[j] != '>' {
				d := data[j]
				if isHex(d) {
					hexDigits = append(hexDigits, d)
				}
				j++
			}
			if len(hexDigits)%2 == 1 {
				hexDigits = append(hexDigits, '0')
			}
			raw := make([]byte, len(hexDigits)/2)
			for k := range raw {
				raw[k] = hexNibble(hexDigits[2*k])<<4 | hexNibble(hexDigits[2*k+1])
			}
			tokens = append(tokens, cmapToken{kind: tokHex, bytes: raw})
			i = j + 1
		case c == '[':
			tokens = append(tokens, cmapToken{kind: tokArrayStart})
			i++
		case c == ']':
			tokens = append(tokens, cmapToken{kind: tokArrayEnd})
			i++
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			j := i
			for j < len(data) && isRegular(data[j]) {
				j++
			}
			tokens = append(tokens, cmapToken{kind: tokKeyword, text: string(data[i:j])})
			i = j
		default:
			j := i
			for j < len(data) && isRegular(data[j]) {
				j++
			}
			if j == i {
				j++
			}
			tokens = append(tokens, cmapToken{kind: tokOther, text: string(data[i:j])})
			i = j
		}
	}
	return tokens
}

func bytesToCode(b []byte) uint32 {
	var code uint32
	for _, by := range b {
		code = code<<8 | uint32(by)
	}
	return code
}

// utf16BEToString interprets destination bytes as UTF-16BE, which is
// what ToUnicode CMaps use. A single byte is taken as a bare code point.
func utf16BEToString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
	}
	if len(b) == 1 {
		return string(rune(b[0]))
	}

	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '<', '>', '[', ']', '(', ')', '{', '}', '/', '%':
		return false
	}
	return true
}
