// Package ghostink finds text in PDF files that is present in the
// content but invisible when rendered: text drawn with rendering mode
// 3, text painted with zero fill alpha, and text whose fill color
// matches the page background.
//
// Basic usage:
//
//	candidates, warnings, err := ghostink.Open("document.pdf").Scan()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", ghostink.FormatWarnings(warnings))
//	}
//	fmt.Println(ghostink.FormatReport(candidates))
//
// With options:
//
//	report, _, err := ghostink.Open("scan.pdf").
//	    Pages(1, 2, 3).
//	    Background(0xF5F5F5).
//	    WithOCR().
//	    Report()
//
// For lower-level access to the document, the reader package is also
// available.
package ghostink

import (
	"github.com/tsawler/ghostink/reader"
)

// Open creates a Scanner for the named PDF file. The file is opened
// lazily by the first terminal operation, which also closes it.
//
// Example:
//
//	candidates, warnings, err := ghostink.Open("document.pdf").Scan()
func Open(filename string) *Scanner {
	return &Scanner{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader creates a Scanner over an already-opened reader.Reader.
// The caller keeps ownership and is responsible for closing it.
//
// Example:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	candidates, warnings, err := ghostink.FromReader(r).Scan()
func FromReader(r *reader.Reader) *Scanner {
	return &Scanner{
		reader:       r,
		readerOpened: true,
		options:      defaultOptions(),
	}
}

// Must wraps a call returning (T, error) and panics on error. Intended
// for scripts and tests.
//
// Example:
//
//	count := ghostink.Must(ghostink.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustScan wraps a call to Scan or Report, panicking on error and
// discarding warnings.
//
// Example:
//
//	report := ghostink.MustScan(ghostink.Open("document.pdf").Report())
func MustScan[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
