package ghostink

// scanOptions holds configuration for a scan.
type scanOptions struct {
	// Page selection, 1-indexed. nil means all pages.
	pages []int

	// Background color as packed 0xRRGGBB. Only meaningful when
	// backgroundSet is true; otherwise white is assumed and large
	// filled rectangles may override it per page.
	background    int
	backgroundSet bool

	// OCR corroboration of candidates against page images.
	useOCR  bool
	ocrLang string
}

// defaultOptions returns the options for a bare scan: every page,
// white background with per-page estimation, no OCR.
func defaultOptions() scanOptions {
	return scanOptions{
		ocrLang: "eng",
	}
}

// clone creates a deep copy of scanOptions.
func (o scanOptions) clone() scanOptions {
	newOpts := o
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}
	return newOpts
}
