// Package ocr corroborates hidden text findings against what a page's
// images actually show, using the Tesseract engine via gosseract.
// Tesseract must be installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Client wraps Tesseract for text recognition.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client. Close it to release engine resources.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases the underlying Tesseract client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage sets the recognition language, "+" separated for multiple
// languages (e.g. "eng+fra"). The default is English.
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// RecognizeImage runs OCR over encoded image data (JPEG, PNG, TIFF) and
// returns the recognized text, trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return strings.TrimSpace(text), nil
}

var ocrFolder = cases.Fold()

// NormalizeForMatch reduces text to a comparable form: Unicode NFKC
// normalization, case folding, and whitespace collapsed to single
// spaces. OCR output and extracted span text are both passed through
// this before comparison.
func NormalizeForMatch(text string) string {
	text = norm.NFKC.String(text)
	text = ocrFolder.String(text)
	return strings.Join(strings.Fields(text), " ")
}

// TextAppearsInImage reports whether the normalized span text occurs in
// the normalized OCR output. Spans shorter than three characters after
// normalization are never matched, since single letters occur in almost
// any recognized text.
func TextAppearsInImage(spanText, ocrText string) bool {
	span := NormalizeForMatch(spanText)
	if len([]rune(span)) < 3 {
		return false
	}
	return strings.Contains(NormalizeForMatch(ocrText), span)
}
