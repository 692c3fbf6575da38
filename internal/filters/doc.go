// Package filters implements the stream decompression filters the
// scanner needs to read PDF content: FlateDecode (with TIFF and PNG
// predictors), ASCIIHexDecode, ASCII85Decode, RunLengthDecode, and
// CCITTFaxDecode (via golang.org/x/image/ccitt).
//
// Filter parameters arrive as a Params map translated from the stream's
// DecodeParms dictionary by the core package.
package filters
