// Package core provides low-level PDF parsing primitives and object types.
//
// This package implements the building blocks the scanner reads PDF files
// with: all eight PDF object types (null, boolean, integer, real, string,
// name, array, and dictionary), streams, indirect references,
// cross-reference data, and object streams.
//
// # Object Types
//
// PDF defines eight basic object types, all implemented as types
// satisfying the Object interface:
//
//   - [Null] - the PDF null object
//   - [Bool] - PDF boolean values
//   - [Int] - PDF integers
//   - [Real] - PDF real numbers
//   - [String] - PDF strings (literal or hexadecimal)
//   - [Name] - PDF names (e.g., /Type, /Font)
//   - [Array] - PDF arrays
//   - [Dict] - PDF dictionaries
//
// Additionally, [Stream] holds a PDF stream (dictionary plus binary
// payload) and [IndirectRef] a reference to an indirect object.
//
// # Parsing
//
// [Parser] parses PDF syntax from an io.Reader, either one object at a
// time or as complete indirect object definitions. [Lexer] performs the
// underlying tokenization.
//
// # Cross-Reference Data
//
// [XRefTable] maps object numbers to file locations. [XRefParser] reads
// both traditional xref tables (PDF 1.0-1.4) and xref streams (PDF 1.5+),
// follows /Prev chains from incremental updates, and understands the
// /XRefStm entry of hybrid-reference files.
//
// # Object Streams
//
// [ObjectStream] unpacks /ObjStm streams (PDF 1.5+), which store several
// objects inside one compressed stream.
//
// # Stream Decoding
//
// [Stream.Decode] decompresses stream payloads, supporting FlateDecode
// (with predictors), ASCIIHexDecode, ASCII85Decode, RunLengthDecode, and
// CCITTFaxDecode, including filter chains.
package core
