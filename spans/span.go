// Package spans interprets page content streams and produces text
// spans annotated with the graphics state in effect when each was
// painted. A span corresponds to one show operator.
package spans

import (
	"unicode"

	"github.com/tsawler/ghostink/graphicsstate"
)

// Span is a run of text from a single show operator together with the
// paint attributes that decide its visibility.
type Span struct {
	// Text is the Unicode text, decoded through the font's ToUnicode
	// CMap when available.
	Text string

	// Position and approximate extent in device space.
	X, Y          float64
	Width, Height float64

	FontName string

	// FontSize is the effective rendered size, the Tf size scaled by
	// the text and transformation matrices.
	FontSize float64

	// RenderMode is the Tr mode in effect; mode 3 paints nothing.
	RenderMode int

	// Color is the nonstroking color as RGB in [0, 1].
	Color [3]float64

	// Alpha is the nonstroking alpha from an ExtGState /ca entry.
	// HasAlpha is false when the content never set one.
	HasAlpha bool
	Alpha    float64
}

// ColorRGB returns the span's fill color packed as 0xRRGGBB.
func (s Span) ColorRGB() int {
	return graphicsstate.PackRGB(s.Color)
}

// IsWhitespace reports whether the decoded text contains no visible
// characters at all.
func (s Span) IsWhitespace() bool {
	for _, r := range s.Text {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
