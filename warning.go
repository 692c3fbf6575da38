package ghostink

import (
	"fmt"
	"strings"
)

// Warning reports a non-fatal issue encountered during a scan, such as
// a page that could not be parsed or a background estimate made
// unreliable by page images.
type Warning struct {
	// Page is the 1-indexed page the warning concerns, or 0 for
	// document-level warnings.
	Page    int
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single semicolon-separated
// string for logging.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
