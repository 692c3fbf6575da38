package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Params holds decode parameters from a PDF stream dictionary, with PDF
// objects already translated to Go primitives. Common keys are Predictor,
// Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

// FlateDecode decompresses zlib/deflate compressed data, the most common
// compression in PDF files, and applies the predictor named in params
// when present.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	decompressed := buf.Bytes()

	predictor := intParam(params, "Predictor", 1)
	if predictor == 1 {
		return decompressed, nil
	}

	out, err := undoPredictor(decompressed, predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor %d: %w", predictor, err)
	}
	return out, nil
}

// undoPredictor reverses the prediction applied before compression.
// Predictor 2 is TIFF horizontal differencing; 10-15 are the PNG row
// predictors.
func undoPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	switch {
	case predictor == 2:
		return undoTIFFPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// undoTIFFPredictor reverses TIFF Predictor 2, where each sample was
// differenced against the sample to its left.
func undoTIFFPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor supports 8 bits per component, got %d", bpc)
	}

	rowSize := columns * colors
	if rowSize == 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d not a multiple of row size %d", len(data), rowSize)
	}

	result := make([]byte, len(data))
	for row := 0; row < len(data)/rowSize; row++ {
		base := row * rowSize
		for col := 0; col < rowSize; col++ {
			idx := base + col
			if col < colors {
				result[idx] = data[idx]
			} else {
				result[idx] = data[idx] + result[idx-colors]
			}
		}
	}
	return result, nil
}

// undoPNGPredictor reverses the PNG row predictors. Each encoded row is
// prefixed by one predictor byte selecting the algorithm for that row.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("PNG predictor supports 8 bits per component, got %d", bpc)
	}

	bytesPerPixel := colors
	rowLength := columns * colors
	rowSize := rowLength + 1 // predictor byte prefix

	if rowSize <= 1 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d not a multiple of row size %d", len(data), rowSize)
	}

	numRows := len(data) / rowSize
	result := make([]byte, numRows*rowLength)

	for row := 0; row < numRows; row++ {
		rowStart := row * rowSize
		tag := data[rowStart]
		rowData := data[rowStart+1 : rowStart+rowSize]
		out := result[row*rowLength : (row+1)*rowLength]

		for i := 0; i < rowLength; i++ {
			var left, up, upLeft byte
			if i >= bytesPerPixel {
				left = out[i-bytesPerPixel]
			}
			if row > 0 {
				up = result[(row-1)*rowLength+i]
				if i >= bytesPerPixel {
					upLeft = result[(row-1)*rowLength+i-bytesPerPixel]
				}
			}

			var predicted byte
			switch tag {
			case 0: // None
			case 1: // Sub
				predicted = left
			case 2: // Up
				predicted = up
			case 3: // Average
				predicted = byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				predicted = paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG row predictor %d in row %d", tag, row)
			}
			out[i] = rowData[i] + predicted
		}
	}

	return result, nil
}

// paeth selects the neighbor (left, above, or upper-left) closest to the
// linear prediction, per the PNG specification.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := intAbs(p - int(a))
	pb := intAbs(p - int(b))
	pc := intAbs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// intParam extracts an integer parameter, falling back to defaultValue
// when the key is missing or not numeric.
func intParam(params Params, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// boolParam extracts a boolean parameter with a default.
func boolParam(params Params, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
