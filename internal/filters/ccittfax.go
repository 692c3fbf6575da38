package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax compressed data, the usual
// encoding for bi-level scanned images.
//
// Parameters honored from the decode parameters dictionary:
//   - K: group selector (negative selects Group 4, otherwise Group 3)
//   - Columns: image width in pixels (default 1728)
//   - Rows: image height in pixels (0 auto-detects)
//   - BlackIs1: bit interpretation, mapped to ccitt.Options.Invert
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1728)
	rows := intParam(params, "Rows", 0)
	k := intParam(params, "K", 0)
	blackIs1 := boolParam(params, "BlackIs1", false)

	var sf ccitt.SubFormat
	if k < 0 {
		sf = ccitt.Group4
	} else {
		sf = ccitt.Group3
	}

	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{Invert: blackIs1}
	reader := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return io.ReadAll(reader)
}
