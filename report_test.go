package ghostink

import (
	"strings"
	"testing"

	"github.com/tsawler/ghostink/spans"
)

func TestFormatCandidate(t *testing.T) {
	c := Candidate{
		Page: 3,
		Span: spans.Span{
			Text:       "secret",
			RenderMode: 3,
			Color:      [3]float64{1, 1, 1},
			FontSize:   10.5,
			FontName:   "Helvetica",
		},
		Reasons: []string{ReasonInvisibleRenderMode},
	}

	want := `[Page 3] Hidden text candidate: "secret" | render_mode=3 | color=#ffffff | size=10.5 | font=Helvetica`
	if got := FormatCandidate(c); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestFormatCandidateEscapesText(t *testing.T) {
	c := Candidate{
		Page: 1,
		Span: spans.Span{Text: "line\nbreak \"quoted\"", FontName: "F"},
	}

	got := FormatCandidate(c)
	if !strings.Contains(got, `"line\nbreak \"quoted\""`) {
		t.Errorf("control characters not escaped: %s", got)
	}
}

func TestFormatReportEmpty(t *testing.T) {
	if got := FormatReport(nil); got != NoCandidatesMessage {
		t.Errorf("got %q", got)
	}
}

func TestFormatReportMultipleLines(t *testing.T) {
	candidates := []Candidate{
		{Page: 1, Span: spans.Span{Text: "first", FontName: "A"}},
		{Page: 2, Span: spans.Span{Text: "second", FontName: "B"}, LikelyOCRLayer: true},
	}

	got := FormatReport(candidates)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[Page 1]") {
		t.Errorf("line 0: %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], " | likely OCR text layer") {
		t.Errorf("line 1 missing OCR marker: %s", lines[1])
	}
}

func TestFormatWarnings(t *testing.T) {
	warnings := []Warning{
		{Page: 2, Message: "unreadable font"},
		{Message: "OCR unavailable"},
	}
	want := "page 2: unreadable font; OCR unavailable"
	if got := FormatWarnings(warnings); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := FormatWarnings(nil); got != "" {
		t.Errorf("empty warnings formatted as %q", got)
	}
}
