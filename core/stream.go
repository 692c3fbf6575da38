package core

import (
	"fmt"

	"github.com/tsawler/ghostink/internal/filters"
)

// Decode decompresses the stream payload according to the /Filter entry,
// applying filter chains in order. Supported filters: FlateDecode,
// ASCIIHexDecode, ASCII85Decode, RunLengthDecode, and CCITTFaxDecode.
// DCTDecode and JPXDecode payloads (JPEG data) pass through unchanged.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")

	if filterName, ok := filterObj.(Name); ok {
		return applyFilter(s.Data, string(filterName), paramsToDict(paramsObj))
	}

	if filterArray, ok := filterObj.(Array); ok {
		data := s.Data
		for i, filter := range filterArray {
			filterName, ok := filter.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
			}

			var params Dict
			if paramsArray, ok := paramsObj.(Array); ok {
				if i < len(paramsArray) {
					params = paramsToDict(paramsArray[i])
				}
			} else {
				params = paramsToDict(paramsObj)
			}

			var err error
			data, err = applyFilter(data, string(filterName), params)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s): %w", i, filterName, err)
			}
		}
		return data, nil
	}

	return nil, fmt.Errorf("invalid /Filter type: %T", filterObj)
}

// applyFilter runs a single named filter over data.
func applyFilter(data []byte, filterName string, params Dict) ([]byte, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))

	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)

	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)

	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)

	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(params))

	case "DCTDecode", "DCT", "JPXDecode":
		// JPEG family: handed to the image layer as-is.
		return data, nil

	case "LZWDecode", "LZW":
		return nil, fmt.Errorf("LZWDecode not implemented")

	case "JBIG2Decode":
		return nil, fmt.Errorf("JBIG2Decode not implemented")

	case "Crypt":
		return nil, fmt.Errorf("Crypt filter not implemented")

	default:
		return nil, fmt.Errorf("unknown filter %q", filterName)
	}
}

// paramsToDict normalizes a DecodeParms object to a Dict, treating nil
// and Null as absent.
func paramsToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts PDF parameter objects to the primitive types the
// filters package works with.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
