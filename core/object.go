package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Object is the interface satisfied by every PDF object type.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType identifies the concrete type of a PDF object.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

// String returns the name of the object type.
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjIndirect:
		return "IndirectRef"
	default:
		return "Unknown"
	}
}

// Null represents the PDF null object.
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean.
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer.
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number.
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string. The bytes may be text in any encoding
// or raw binary data; interpretation is up to the consumer.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }

// Name represents a PDF name object such as /Type or /Font.
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array represents a PDF array.
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the number of elements in the array.
func (a Array) Len() int { return len(a) }

// Get returns the element at index, or nil if out of range.
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// Float returns the element at index as a float64 if it is numeric.
func (a Array) Float(index int) (float64, bool) {
	switch v := a.Get(index).(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// Dict represents a PDF dictionary.
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	var parts []string
	for key, val := range d {
		parts = append(parts, fmt.Sprintf("/%s %s", key, val.String()))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for key, or nil if absent.
func (d Dict) Get(key string) Object { return d[key] }

// Has reports whether key is present in the dictionary.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set stores a value under key.
func (d Dict) Set(key string, value Object) { d[key] = value }

// GetName returns the value for key as a Name.
func (d Dict) GetName(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// GetInt returns the value for key as an Int.
func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

// GetDict returns the value for key as a Dict.
func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

// GetArray returns the value for key as an Array.
func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

// GetStream returns the value for key as a Stream.
func (d Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d[key].(*Stream)
	return s, ok
}

// GetIndirectRef returns the value for key as an IndirectRef.
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// GetFloat returns the value for key as a float64 if it is numeric
// (either Int or Real).
func (d Dict) GetFloat(key string) (float64, bool) {
	switch v := d[key].(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// Keys returns all keys in the dictionary in map order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}

// Stream represents a PDF stream object: a dictionary describing the
// stream followed by its raw (possibly compressed) byte payload.
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef is a reference to an indirect object ("n g R").
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject pairs an indirect object with its reference.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}
