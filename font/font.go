// Package font resolves font dictionaries far enough to turn show
// operator strings into Unicode text, using the font's ToUnicode CMap
// when one is embedded.
package font

import (
	"strings"

	"github.com/tsawler/ghostink/core"
)

// Font is the subset of a PDF font needed for text decoding.
type Font struct {
	BaseFont  string
	Subtype   string
	toUnicode *CMap
}

// ResolverFunc resolves an indirect reference to its object.
type ResolverFunc func(ref core.IndirectRef) (core.Object, error)

// Load builds a Font from a font dictionary. A missing or unparseable
// ToUnicode entry is not an error; decoding falls back to byte values.
func Load(dict core.Dict, resolve ResolverFunc) (*Font, error) {
	f := &Font{}

	if base, ok := dict.GetName("BaseFont"); ok {
		f.BaseFont = cleanBaseFont(string(base))
	}
	if subtype, ok := dict.GetName("Subtype"); ok {
		f.Subtype = string(subtype)
	}

	if tuObj := dict.Get("ToUnicode"); tuObj != nil && resolve != nil {
		resolved := tuObj
		if ref, ok := tuObj.(core.IndirectRef); ok {
			var err error
			resolved, err = resolve(ref)
			if err != nil {
				resolved = nil
			}
		}
		if stream, ok := resolved.(*core.Stream); ok {
			if cmap, err := ParseToUnicode(stream); err == nil {
				f.toUnicode = cmap
			}
		}
	}

	return f, nil
}

// Name returns the font's base name, or a placeholder when the
// dictionary had none.
func (f *Font) Name() string {
	if f == nil || f.BaseFont == "" {
		return "Unknown"
	}
	return f.BaseFont
}

// DecodeString converts the raw bytes of a show operator into Unicode
// text. With no ToUnicode CMap, Type0 fonts decode as 2-byte codes and
// simple fonts as single bytes.
func (f *Font) DecodeString(raw string) string {
	data := []byte(raw)

	if f != nil && f.toUnicode != nil {
		return f.toUnicode.Decode(data)
	}

	if f != nil && f.Subtype == "Type0" {
		var sb strings.Builder
		for i := 0; i+1 < len(data); i += 2 {
			code := rune(uint32(data[i])<<8 | uint32(data[i+1]))
			sb.WriteRune(code)
		}
		if len(data)%2 == 1 {
			sb.WriteRune(rune(data[len(data)-1]))
		}
		return sb.String()
	}

	var sb strings.Builder
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

// cleanBaseFont strips the subset prefix from names like
// ABCDEF+Helvetica.
func cleanBaseFont(name string) string {
	if len(name) > 7 && name[6] == '+' {
		prefix := name[:6]
		allUpper := true
		for _, r := range prefix {
			if r < 'A' || r > 'Z' {
				allUpper = false
				break
			}
		}
		if allUpper {
			return name[7:]
		}
	}
	return name
}
