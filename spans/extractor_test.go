package spans

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tsawler/ghostink/core"
	"github.com/tsawler/ghostink/graphicsstate"
)

func extract(t *testing.T, content string) *Result {
	t.Helper()
	result, err := NewExtractor().Extract([]byte(content))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return result
}

func TestExtractSimpleText(t *testing.T) {
	result := extract(t, `BT /F1 12 Tf 100 700 Td (Visible text) Tj ET`)

	want := []Span{{
		Text:     "Visible text",
		X:        100,
		Y:        700,
		FontName: "Unknown",
		FontSize: 12,
		Height:   12,
	}}
	opts := cmpopts.IgnoreFields(Span{}, "Width")
	if diff := cmp.Diff(want, result.Spans, opts); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractInvisibleRenderMode(t *testing.T) {
	result := extract(t, `BT /F1 10 Tf 3 Tr (hidden) Tj 0 Tr (shown) Tj ET`)

	if len(result.Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(result.Spans))
	}
	if result.Spans[0].RenderMode != 3 {
		t.Errorf("first span render mode = %d, want 3", result.Spans[0].RenderMode)
	}
	if result.Spans[1].RenderMode != 0 {
		t.Errorf("second span render mode = %d, want 0", result.Spans[1].RenderMode)
	}
}

func TestExtractFillColors(t *testing.T) {
	content := `BT /F1 10 Tf
1 1 1 rg (white) Tj
0 g (black) Tj
0 0 0 1 k (cmyk black) Tj
1 sc (gray white) Tj
ET`
	result := extract(t, content)

	if len(result.Spans) != 4 {
		t.Fatalf("got %d spans, want 4", len(result.Spans))
	}
	wantColors := []int{0xFFFFFF, 0x000000, 0x000000, 0xFFFFFF}
	for i, want := range wantColors {
		if got := result.Spans[i].ColorRGB(); got != want {
			t.Errorf("span %d color = %#06x, want %#06x", i, got, want)
		}
	}
}

func TestExtractAlphaFromExtGState(t *testing.T) {
	e := NewExtractor()
	resources := core.Dict{
		"ExtGState": core.Dict{
			"GS0": core.Dict{"ca": core.Real(0), "CA": core.Real(1)},
			"GS1": core.Dict{"ca": core.Real(0.5)},
		},
	}
	if err := e.RegisterResources(resources, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	content := `BT /F1 10 Tf
/GS0 gs (transparent) Tj
/GS1 gs (translucent) Tj
ET`
	result, err := e.Extract([]byte(content))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(result.Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(result.Spans))
	}
	first := result.Spans[0]
	if !first.HasAlpha || first.Alpha != 0 {
		t.Errorf("first span alpha = %v/%g, want seen/0", first.HasAlpha, first.Alpha)
	}
	second := result.Spans[1]
	if !second.HasAlpha || second.Alpha != 0.5 {
		t.Errorf("second span alpha = %v/%g, want seen/0.5", second.HasAlpha, second.Alpha)
	}
}

func TestExtractStateIsolation(t *testing.T) {
	// Changes inside q/Q must not leak out.
	content := `BT /F1 10 Tf
q 1 1 1 rg 3 Tr (inner) Tj Q
(outer) Tj
ET`
	result := extract(t, content)

	if len(result.Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(result.Spans))
	}
	inner, outer := result.Spans[0], result.Spans[1]
	if inner.ColorRGB() != 0xFFFFFF || inner.RenderMode != 3 {
		t.Errorf("inner span = color %#06x mode %d", inner.ColorRGB(), inner.RenderMode)
	}
	if outer.ColorRGB() != 0x000000 || outer.RenderMode != 0 {
		t.Errorf("outer span = color %#06x mode %d", outer.ColorRGB(), outer.RenderMode)
	}
}

func TestExtractUnbalancedRestoreTolerated(t *testing.T) {
	result := extract(t, `Q Q BT /F1 10 Tf (still works) Tj ET`)
	if len(result.Spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(result.Spans))
	}
}

func TestExtractTJCollapsesToOneSpan(t *testing.T) {
	result := extract(t, `BT /F1 10 Tf [(Hel) -20 (lo)] TJ ET`)

	if len(result.Spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(result.Spans))
	}
	if result.Spans[0].Text != "Hello" {
		t.Errorf("text = %q, want %q", result.Spans[0].Text, "Hello")
	}
}

func TestExtractEffectiveFontSize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{
			name:    "nominal",
			content: `BT /F1 12 Tf (x) Tj ET`,
			want:    12,
		},
		{
			name:    "scaled by Tm",
			content: `BT /F1 12 Tf 2 0 0 2 0 0 Tm (x) Tj ET`,
			want:    24,
		},
		{
			name:    "scaled by CTM",
			content: `0.5 0 0 0.5 0 0 cm BT /F1 12 Tf (x) Tj ET`,
			want:    6,
		},
		{
			name:    "tiny",
			content: `BT /F1 12 Tf 0.01 0 0 0.01 0 0 Tm (x) Tj ET`,
			want:    0.12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extract(t, tt.content)
			if len(result.Spans) != 1 {
				t.Fatalf("got %d spans", len(result.Spans))
			}
			got := result.Spans[0].FontSize
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("font size = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestExtractTextPositioning(t *testing.T) {
	content := `BT /F1 10 Tf 12 TL 100 700 Td (one) Tj T* (two) Tj ET`
	result := extract(t, content)

	if len(result.Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(result.Spans))
	}
	first, second := result.Spans[0], result.Spans[1]
	if first.X != 100 || first.Y != 700 {
		t.Errorf("first span at (%g, %g)", first.X, first.Y)
	}
	if second.X != 100 || second.Y != 688 {
		t.Errorf("second span at (%g, %g), want (100, 688)", second.X, second.Y)
	}
}

func TestExtractRecordedFills(t *testing.T) {
	content := `1 1 1 rg 0 0 612 792 re f
0 g 10 10 50 20 re f
100 100 m 150 150 l S`
	result := extract(t, content)

	want := []graphicsstate.FilledRect{
		{X: 0, Y: 0, W: 612, H: 792, Color: [3]float64{1, 1, 1}},
		{X: 10, Y: 10, W: 50, H: 20, Color: [3]float64{0, 0, 0}},
	}
	if diff := cmp.Diff(want, result.Fills); diff != "" {
		t.Errorf("fills mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFillsTransformedByCTM(t *testing.T) {
	result := extract(t, `2 0 0 2 0 0 cm 1 1 1 rg 0 0 100 100 re f`)

	if len(result.Fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(result.Fills))
	}
	if result.Fills[0].W != 200 || result.Fills[0].H != 200 {
		t.Errorf("fill = %+v", result.Fills[0])
	}
}

func TestExtractInlineImageFlag(t *testing.T) {
	result := extract(t, "BI /W 1 /H 1 /BPC 8 /CS /G ID \x41 EI q Q")
	if !result.HasInlineImages {
		t.Error("inline image not detected")
	}

	result = extract(t, `BT /F1 10 Tf (no images) Tj ET`)
	if result.HasInlineImages {
		t.Error("inline image flagged with none present")
	}
}

func TestExtractFontDecoding(t *testing.T) {
	cmapData := `/CIDInit /ProcSet findresource begin
begincmap
1 begincodespacerange
<00> <FF>
endcodespacerange
2 beginbfchar
<01> <0048>
<02> <0069>
endbfchar
endcmap
end`

	e := NewExtractor()
	resources := core.Dict{
		"Font": core.Dict{
			"F1": core.Dict{
				"Subtype":   core.Name("Type1"),
				"BaseFont":  core.Name("ABCDEF+Mapped"),
				"ToUnicode": core.IndirectRef{Number: 4},
			},
		},
	}
	resolve := func(ref core.IndirectRef) (core.Object, error) {
		return &core.Stream{Dict: core.Dict{}, Data: []byte(cmapData)}, nil
	}
	if err := e.RegisterResources(resources, resolve); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := e.Extract([]byte("BT /F1 10 Tf (\x01\x02) Tj ET"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Spans) != 1 {
		t.Fatalf("got %d spans", len(result.Spans))
	}
	if result.Spans[0].Text != "Hi" {
		t.Errorf("text = %q, want %q", result.Spans[0].Text, "Hi")
	}
	if result.Spans[0].FontName != "Mapped" {
		t.Errorf("font name = %q, want %q", result.Spans[0].FontName, "Mapped")
	}
}

func TestSpanIsWhitespace(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{" ", true},
		{"a", false},
		{"  x  ", false},
	}
	for _, tt := range tests {
		s := Span{Text: tt.text}
		if got := s.IsWhitespace(); got != tt.want {
			t.Errorf("IsWhitespace(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
