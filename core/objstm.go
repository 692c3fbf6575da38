package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ObjectStream wraps a /Type /ObjStm stream (PDF 1.5+), which packs
// multiple non-stream objects into one compressed payload for better
// compression. The payload starts with N pairs of "objNum offset"
// integers; the objects themselves begin at byte /First.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	decoded []byte
	offsets map[int]int // object number -> offset relative to /First
	order   []int       // object numbers in their stored order
}

// NewObjectStream validates the stream dictionary and parses the header
// pair table.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("nil stream")
	}
	typeName, ok := stream.Dict.GetName("Type")
	if !ok || string(typeName) != "ObjStm" {
		return nil, fmt.Errorf("stream /Type is %v, expected /ObjStm", stream.Dict.Get("Type"))
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream missing valid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream missing valid /First")
	}

	os := &ObjectStream{
		stream: stream,
		n:      int(n),
		first:  int(first),
	}
	if err := os.parseHeader(); err != nil {
		return nil, err
	}
	return os, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int { return os.n }

// First returns the byte offset of the first object in the payload.
func (os *ObjectStream) First() int { return os.first }

// ObjectNumbers returns the stored object numbers in order.
func (os *ObjectStream) ObjectNumbers() []int {
	out := make([]int, len(os.order))
	copy(out, os.order)
	return out
}

// Contains reports whether the stream stores the given object.
func (os *ObjectStream) Contains(objNum int) bool {
	_, ok := os.offsets[objNum]
	return ok
}

func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}
	data, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("decode object stream: %w", err)
	}
	os.decoded = data
	return nil
}

// parseHeader reads the N pairs of "objNum offset" integers preceding
// the packed objects.
func (os *ObjectStream) parseHeader() error {
	if err := os.decode(); err != nil {
		return err
	}
	if os.first > len(os.decoded) {
		return fmt.Errorf("/First %d beyond payload of %d bytes", os.first, len(os.decoded))
	}

	fields := strings.Fields(string(os.decoded[:os.first]))
	if len(fields) < os.n*2 {
		return fmt.Errorf("object stream header has %d fields, need %d", len(fields), os.n*2)
	}

	os.offsets = make(map[int]int, os.n)
	os.order = make([]int, 0, os.n)
	for i := 0; i < os.n; i++ {
		objNum, err := strconv.Atoi(fields[i*2])
		if err != nil {
			return fmt.Errorf("invalid object number in header: %w", err)
		}
		offset, err := strconv.Atoi(fields[i*2+1])
		if err != nil {
			return fmt.Errorf("invalid offset in header: %w", err)
		}
		os.offsets[objNum] = offset
		os.order = append(os.order, objNum)
	}
	return nil
}

// GetObject extracts the object with the given number from the stream.
func (os *ObjectStream) GetObject(objNum int) (Object, error) {
	offset, ok := os.offsets[objNum]
	if !ok {
		return nil, fmt.Errorf("object %d not in object stream", objNum)
	}

	start := os.first + offset
	if start >= len(os.decoded) {
		return nil, fmt.Errorf("object %d offset %d beyond payload", objNum, start)
	}

	parser := NewParser(bytes.NewReader(os.decoded[start:]))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("parse object %d from object stream: %w", objNum, err)
	}
	return obj, nil
}

// GetObjectByIndex extracts the index-th stored object. Index order
// matches the header pair table, which is what type-2 xref entries use.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if index < 0 || index >= len(os.order) {
		return nil, 0, fmt.Errorf("object stream index %d out of range [0, %d)", index, len(os.order))
	}
	objNum := os.order[index]
	obj, err := os.GetObject(objNum)
	return obj, objNum, err
}
