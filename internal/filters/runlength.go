package filters

import "fmt"

// RunLengthDecode expands run-length encoded data. Each run starts with a
// length byte: 0-127 means copy the next length+1 bytes literally, 129-255
// means repeat the next byte 257-length times, and 128 marks end of data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(data) {
		length := data[i]
		i++
		if length == 128 {
			return out, nil
		}
		if length < 128 {
			n := int(length) + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("literal run of %d bytes exceeds data at offset %d", n, i)
			}
			out = append(out, data[i:i+n]...)
			i += n
		} else {
			if i >= len(data) {
				return nil, fmt.Errorf("repeat run missing byte at offset %d", i)
			}
			n := 257 - int(length)
			for j := 0; j < n; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	return nil, fmt.Errorf("missing end-of-data marker")
}
