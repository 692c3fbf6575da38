package font

import (
	"testing"

	"github.com/tsawler/ghostink/core"
)

const cmapHeader = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
`

const cmapFooter = `endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

func parseTestCMap(t *testing.T, body string) *CMap {
	t.Helper()
	stream := &core.Stream{
		Dict: core.Dict{},
		Data: []byte(cmapHeader + body + cmapFooter),
	}
	cm, err := ParseToUnicode(stream)
	if err != nil {
		t.Fatalf("parse cmap: %v", err)
	}
	return cm
}

func TestCMapBfChar(t *testing.T) {
	cm := parseTestCMap(t, `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
3 beginbfchar
<0041> <0048>
<0042> <0069>
<0043> <D83D DE00>
endbfchar
`)

	if cm.CodeLength() != 2 {
		t.Errorf("code length = %d, want 2", cm.CodeLength())
	}

	got := cm.Decode([]byte{0x00, 0x41, 0x00, 0x42})
	if got != "Hi" {
		t.Errorf("decoded %q, want %q", got, "Hi")
	}

	// Surrogate pair decodes to a single code point.
	if got := cm.Decode([]byte{0x00, 0x43}); got != "\U0001F600" {
		t.Errorf("surrogate pair decoded %q", got)
	}
}

func TestCMapBfRange(t *testing.T) {
	cm := parseTestCMap(t, `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0001> <001A> <0061>
endbfrange
`)

	// Codes 1 through 26 map onto a..z.
	got := cm.Decode([]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x1A})
	if got != "abz" {
		t.Errorf("decoded %q, want %q", got, "abz")
	}
}

func TestCMapBfRangeSurrogateDestination(t *testing.T) {
	cm := parseTestCMap(t, `1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0000> <0002> <D835DC00>
endbfrange
`)

	// Destinations above the BMP step through the low surrogate.
	got := cm.Decode([]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x02})
	if got != "\U0001D400\U0001D401\U0001D402" {
		t.Errorf("decoded %q, want %q", got, "\U0001D400\U0001D401\U0001D402")
	}
}

func TestCMapBfRangeArrayForm(t *testing.T) {
	cm := parseTestCMap(t, `1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfrange
<10> <12> [<0058> <0059> <005A>]
endbfrange
`)

	if cm.CodeLength() != 1 {
		t.Errorf("code length = %d, want 1", cm.CodeLength())
	}
	if got := cm.Decode([]byte{0x10, 0x11, 0x12}); got != "XYZ" {
		t.Errorf("decoded %q, want %q", got, "XYZ")
	}
}

func TestCMapUnmappedFallback(t *testing.T) {
	cm := parseTestCMap(t, `1 begincodespacerange
<00> <FF>
endcodespacerange
1 beginbfchar
<01> <0041>
endbfchar
`)

	// Code 0x42 has no mapping and falls back to its byte value.
	if got := cm.Decode([]byte{0x01, 0x42}); got != "AB" {
		t.Errorf("decoded %q, want %q", got, "AB")
	}
}

func TestCMapTwoByteHeuristic(t *testing.T) {
	// No codespace range; mappings above 0xFF imply 2-byte codes.
	cm := parseTestCMap(t, `2 beginbfchar
<0141> <0041>
<0142> <0042>
endbfchar
`)

	if got := cm.Decode([]byte{0x01, 0x41, 0x01, 0x42}); got != "AB" {
		t.Errorf("decoded %q, want %q", got, "AB")
	}
}

func TestCMapBOMStripped(t *testing.T) {
	cm := parseTestCMap(t, `1 beginbfchar
<01> <FEFF0048>
endbfchar
`)
	if got := cm.Decode([]byte{0x01}); got != "H" {
		t.Errorf("decoded %q, want %q", got, "H")
	}
}

func TestCMapMultiCharDestination(t *testing.T) {
	// Ligature expansion: one code maps to several characters.
	cm := parseTestCMap(t, `1 beginbfchar
<01> <006600660069>
endbfchar
`)
	if got := cm.Decode([]byte{0x01}); got != "ffi" {
		t.Errorf("decoded %q, want %q", got, "ffi")
	}
}
