package ghostink

import (
	"fmt"
	"sort"

	"github.com/tsawler/ghostink/graphicsstate"
	"github.com/tsawler/ghostink/ocr"
	"github.com/tsawler/ghostink/pages"
	"github.com/tsawler/ghostink/reader"
	"github.com/tsawler/ghostink/spans"
)

// backgroundCoverage is the fraction of the page a filled rectangle
// must cover to be taken as the page background.
const backgroundCoverage = 0.9

// imageCoverageWarn is the fraction of the page an image must cover
// before background estimation is considered unreliable.
const imageCoverageWarn = 0.5

// Scanner provides a fluent interface for scanning a document. Each
// configuration method returns a new Scanner instance, so a configured
// scanner can be reused and shared.
type Scanner struct {
	filename string

	reader       *reader.Reader
	ownsReader   bool
	readerOpened bool

	options scanOptions

	// Accumulated error (fail-fast).
	err error

	warnings []Warning
}

// clone creates a shallow copy with a deep copy of options, keeping
// chained configuration immutable.
func (s *Scanner) clone() *Scanner {
	return &Scanner{
		filename:     s.filename,
		reader:       s.reader,
		ownsReader:   s.ownsReader,
		readerOpened: s.readerOpened,
		options:      s.options.clone(),
		err:          s.err,
		warnings:     append([]Warning(nil), s.warnings...),
	}
}

func (s *Scanner) ensureReader() error {
	if s.readerOpened {
		return nil
	}
	if s.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	r, err := reader.Open(s.filename)
	if err != nil {
		return fmt.Errorf("open PDF: %w", err)
	}
	s.reader = r
	s.ownsReader = true
	s.readerOpened = true
	return nil
}

// Close releases resources held by the Scanner. Safe to call more
// than once. A closed scanner that owns its reader reopens the file on
// the next operation.
func (s *Scanner) Close() error {
	if s.ownsReader && s.reader != nil {
		err := s.reader.Close()
		s.reader = nil
		s.ownsReader = false
		s.readerOpened = false
		return err
	}
	return nil
}

// Pages restricts the scan to the given pages (1-indexed). Multiple
// calls are cumulative.
//
// Example:
//
//	candidates, _, err := ghostink.Open("doc.pdf").Pages(1, 3, 5).Scan()
func (s *Scanner) Pages(pageNums ...int) *Scanner {
	newScan := s.clone()
	newScan.options.pages = append(newScan.options.pages, pageNums...)
	return newScan
}

// PageRange restricts the scan to an inclusive 1-indexed page range.
//
// Example:
//
//	candidates, _, err := ghostink.Open("doc.pdf").PageRange(5, 10).Scan()
func (s *Scanner) PageRange(start, end int) *Scanner {
	newScan := s.clone()
	for i := start; i <= end; i++ {
		newScan.options.pages = append(newScan.options.pages, i)
	}
	return newScan
}

// Background sets the page background color as packed 0xRRGGBB,
// disabling per-page estimation from filled rectangles.
//
// Example:
//
//	candidates, _, err := ghostink.Open("doc.pdf").Background(0xF0F0F0).Scan()
func (s *Scanner) Background(rgb int) *Scanner {
	newScan := s.clone()
	newScan.options.background = rgb & 0xFFFFFF
	newScan.options.backgroundSet = true
	return newScan
}

// WithOCR enables corroboration of candidates against the document's
// images: a candidate whose text OCR also finds in a page image is
// marked as a likely OCR text layer. Requires Tesseract on the system.
func (s *Scanner) WithOCR() *Scanner {
	newScan := s.clone()
	newScan.options.useOCR = true
	return newScan
}

// OCRLanguage sets the Tesseract language used by WithOCR, "+"
// separated for multiple languages. The default is "eng".
func (s *Scanner) OCRLanguage(lang string) *Scanner {
	newScan := s.clone()
	newScan.options.ocrLang = lang
	return newScan
}

// PageCount opens the document and returns its page count. The reader
// stays open so the scanner can still run a Scan afterwards.
func (s *Scanner) PageCount() (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if err := s.ensureReader(); err != nil {
		return 0, err
	}
	return s.reader.PageCount()
}

// Scan walks the selected pages and returns every text span flagged as
// likely hidden, in page order. Pages that fail to parse are reported
// as warnings and skipped rather than failing the scan.
//
// Scan is a terminal operation: it closes the underlying reader if the
// Scanner owns it.
func (s *Scanner) Scan() ([]Candidate, []Warning, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if err := s.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer s.Close()

	pageCount, err := s.reader.PageCount()
	if err != nil {
		return nil, s.warnings, fmt.Errorf("count pages: %w", err)
	}

	indexes, warnings := selectPages(s.options.pages, pageCount)
	warnings = append(s.warnings, warnings...)

	var ocrClient *ocr.Client
	if s.options.useOCR {
		ocrClient, err = ocr.New()
		if err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("OCR unavailable: %v", err)})
		} else {
			defer ocrClient.Close()
			if s.options.ocrLang != "" {
				if err := ocrClient.SetLanguage(s.options.ocrLang); err != nil {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("OCR language %q: %v", s.options.ocrLang, err)})
				}
			}
		}
	}

	var candidates []Candidate
	for _, idx := range indexes {
		pageCands, pageWarnings := s.scanPage(idx, ocrClient)
		candidates = append(candidates, pageCands...)
		warnings = append(warnings, pageWarnings...)
	}

	return candidates, warnings, nil
}

// scanPage extracts the spans of one page and classifies them. All
// failures are downgraded to warnings.
func (s *Scanner) scanPage(index int, ocrClient *ocr.Client) ([]Candidate, []Warning) {
	pageNum := index + 1
	var warnings []Warning

	page, err := s.reader.GetPage(index)
	if err != nil {
		return nil, []Warning{{Page: pageNum, Message: fmt.Sprintf("load page: %v", err)}}
	}

	content, err := s.reader.PageContent(page)
	if err != nil {
		return nil, []Warning{{Page: pageNum, Message: fmt.Sprintf("read content: %v", err)}}
	}
	if len(content) == 0 {
		return nil, nil
	}

	ext := spans.NewExtractor()
	resources, err := page.Resources()
	if err != nil {
		warnings = append(warnings, Warning{Page: pageNum, Message: fmt.Sprintf("read resources: %v", err)})
	} else if err := ext.RegisterResources(resources, s.reader.ResolveReference); err != nil {
		warnings = append(warnings, Warning{Page: pageNum, Message: fmt.Sprintf("register resources: %v", err)})
	}

	result, err := ext.Extract(content)
	if err != nil {
		warnings = append(warnings, Warning{Page: pageNum, Message: fmt.Sprintf("interpret content: %v", err)})
		return nil, warnings
	}

	background, bgWarnings := s.pageBackground(page, pageNum, result)
	warnings = append(warnings, bgWarnings...)

	var candidates []Candidate
	for _, span := range result.Spans {
		reasons := classify(span, background)
		if len(reasons) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Page:    pageNum,
			Span:    span,
			Reasons: reasons,
		})
	}

	if ocrClient != nil && len(candidates) > 0 {
		ocrWarnings := s.corroborate(page, pageNum, candidates, ocrClient)
		warnings = append(warnings, ocrWarnings...)
	}

	return candidates, warnings
}

// pageBackground determines the background color for a page. An
// explicit Background() always wins. Otherwise a filled rectangle
// covering most of the page sets it, and white is the default. Images
// large enough to repaint the page make the estimate unreliable, which
// is reported but does not change the result.
func (s *Scanner) pageBackground(page *pages.Page, pageNum int, result *spans.Result) (int, []Warning) {
	if s.options.backgroundSet {
		return s.options.background, nil
	}

	var warnings []Warning

	pageW, errW := page.Width()
	pageH, errH := page.Height()
	if errW != nil || errH != nil || pageW <= 0 || pageH <= 0 {
		return WhiteBackground, nil
	}
	pageArea := pageW * pageH

	background := WhiteBackground
	for _, fill := range result.Fills {
		if fill.Area() >= backgroundCoverage*pageArea {
			background = graphicsstate.PackRGB(fill.Color)
		}
	}

	images, err := s.reader.PageImages(page)
	if err == nil {
		for _, img := range images {
			if img.CoversFraction(pageW, pageH) >= imageCoverageWarn {
				warnings = append(warnings, Warning{
					Page:    pageNum,
					Message: fmt.Sprintf("image %s covers most of the page; background estimate may be unreliable", img.Name),
				})
				break
			}
		}
	}
	if result.HasInlineImages {
		warnings = append(warnings, Warning{
			Page:    pageNum,
			Message: "inline images present; background estimate may be unreliable",
		})
	}

	return background, warnings
}

// corroborate runs OCR over the page's JPEG images and marks the
// candidates whose text the images visibly contain.
func (s *Scanner) corroborate(page *pages.Page, pageNum int, candidates []Candidate, client *ocr.Client) []Warning {
	images, err := s.reader.PageImages(page)
	if err != nil {
		return []Warning{{Page: pageNum, Message: fmt.Sprintf("list images for OCR: %v", err)}}
	}

	var warnings []Warning
	var recognized string
	for _, img := range images {
		if !img.IsJPEG() {
			continue
		}
		text, err := client.RecognizeImage(img.Data)
		if err != nil {
			warnings = append(warnings, Warning{Page: pageNum, Message: fmt.Sprintf("OCR image %s: %v", img.Name, err)})
			continue
		}
		recognized += text + "\n"
	}

	if recognized == "" {
		return warnings
	}

	for i := range candidates {
		if ocr.TextAppearsInImage(candidates[i].Span.Text, recognized) {
			candidates[i].LikelyOCRLayer = true
		}
	}

	return warnings
}

// selectPages converts 1-indexed page selections to zero-based indexes
// in ascending order without duplicates. Out-of-range selections are
// reported as warnings. A nil selection means every page.
func selectPages(selected []int, pageCount int) ([]int, []Warning) {
	if len(selected) == 0 {
		indexes := make([]int, pageCount)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, nil
	}

	var warnings []Warning
	seen := make(map[int]bool)
	var indexes []int
	for _, p := range selected {
		if p < 1 || p > pageCount {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("page %d out of range (1-%d)", p, pageCount)})
			continue
		}
		if !seen[p] {
			seen[p] = true
			indexes = append(indexes, p-1)
		}
	}

	sort.Ints(indexes)
	return indexes, warnings
}
