package ghostink

import (
	"github.com/tsawler/ghostink/spans"
)

// Reasons attached to candidates, one per detection rule.
const (
	ReasonInvisibleRenderMode = "invisible-render-mode"
	ReasonZeroAlpha           = "zero-alpha"
	ReasonMatchesBackground   = "matches-background"
)

// WhiteBackground is the packed RGB value assumed for pages when no
// explicit or estimated background is available.
const WhiteBackground = 0xFFFFFF

// Candidate is a text span flagged as likely hidden, with the rules
// that flagged it.
type Candidate struct {
	// Page is 1-indexed.
	Page    int
	Span    spans.Span
	Reasons []string

	// LikelyOCRLayer is set when OCR corroboration found the span's
	// text in a page image, meaning the invisible text mirrors visible
	// scanned content rather than concealing anything.
	LikelyOCRLayer bool
}

// InvisibleRenderMode reports whether the span uses text rendering
// mode 3, which paints no glyphs at all. Clipping modes still mark the
// page and do not count.
func InvisibleRenderMode(s spans.Span) bool {
	return s.RenderMode == 3
}

// FullyTransparent reports whether the span was painted with a fill
// alpha of exactly zero. Spans whose content never set an alpha are
// not transparent, regardless of the zero value of Alpha.
func FullyTransparent(s spans.Span) bool {
	return s.HasAlpha && s.Alpha == 0
}

// MatchesBackground reports whether the span's fill color equals the
// page background, both packed as 0xRRGGBB.
func MatchesBackground(s spans.Span, background int) bool {
	return s.ColorRGB() == background
}

// classify runs every detection rule against a span and returns the
// reasons that apply. Whitespace-only spans never match; invisible
// whitespace hides nothing.
func classify(s spans.Span, background int) []string {
	if s.IsWhitespace() {
		return nil
	}

	var reasons []string
	if InvisibleRenderMode(s) {
		reasons = append(reasons, ReasonInvisibleRenderMode)
	}
	if FullyTransparent(s) {
		reasons = append(reasons, ReasonZeroAlpha)
	}
	if MatchesBackground(s, background) {
		reasons = append(reasons, ReasonMatchesBackground)
	}
	return reasons
}
