package ghostink

import (
	"fmt"
	"strings"
)

// NoCandidatesMessage is the report body when a scan finds nothing.
const NoCandidatesMessage = "No likely hidden text spans detected."

// FormatCandidate renders one candidate as a report line.
func FormatCandidate(c Candidate) string {
	return fmt.Sprintf("[Page %d] Hidden text candidate: %q | render_mode=%d | color=#%06x | size=%g | font=%s",
		c.Page, c.Span.Text, c.Span.RenderMode, c.Span.ColorRGB(), c.Span.FontSize, c.Span.FontName)
}

// FormatReport renders a scan result as a plain text report, one line
// per candidate in page order, or the no-candidates message.
func FormatReport(candidates []Candidate) string {
	if len(candidates) == 0 {
		return NoCandidatesMessage
	}

	var sb strings.Builder
	for i, c := range candidates {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(FormatCandidate(c))
		if c.LikelyOCRLayer {
			sb.WriteString(" | likely OCR text layer")
		}
	}
	return sb.String()
}

// Report runs the scan and renders the result. It is a terminal
// operation like Scan.
//
// Example:
//
//	report, warnings, err := ghostink.Open("doc.pdf").Report()
func (s *Scanner) Report() (string, []Warning, error) {
	candidates, warnings, err := s.Scan()
	if err != nil {
		return "", warnings, err
	}
	return FormatReport(candidates), warnings, nil
}
