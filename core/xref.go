package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// XRefEntry describes where one object lives. Regular entries carry a
// byte offset into the file; compressed entries point into an object
// stream instead.
type XRefEntry struct {
	Offset     int64 // byte offset for regular in-use objects
	Generation int
	InUse      bool

	// Compressed entries (type 2 in an xref stream)
	InObjectStream bool
	StreamNumber   int // object number of the containing /ObjStm
	StreamIndex    int // index of the object within that stream
}

// XRefTable maps object numbers to their locations and carries the
// trailer dictionary that accompanied the cross-reference section.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates an empty cross-reference table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get returns the entry for an object number.
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or replaces the entry for an object number.
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table.
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// XRefParser parses cross-reference data from a PDF file. It handles both
// traditional xref tables (PDF 1.0-1.4) and xref streams (PDF 1.5+),
// including incremental-update chains and hybrid-reference files.
type XRefParser struct {
	reader io.ReadSeeker
}

// NewXRefParser creates a parser over the given file.
func NewXRefParser(r io.ReadSeeker) *XRefParser {
	return &XRefParser{reader: r}
}

// FindStartXRef locates the offset of the last cross-reference section by
// scanning backward from EOF for the "startxref" keyword.
func (x *XRefParser) FindStartXRef() (int64, error) {
	fileSize, err := x.reader.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}

	readSize := int64(1024)
	if fileSize < readSize {
		readSize = fileSize
	}
	if _, err := x.reader.Seek(fileSize-readSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to trailer area: %w", err)
	}

	buf := make([]byte, readSize)
	n, err := io.ReadFull(x.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read trailer area: %w", err)
	}
	content := string(buf[:n])

	idx := strings.LastIndex(content, "startxref")
	if idx == -1 {
		return 0, fmt.Errorf("startxref not found")
	}

	rest := strings.TrimSpace(content[idx+len("startxref"):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("startxref missing offset")
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset: %w", err)
	}
	return offset, nil
}

// ParseSection parses the cross-reference section at the given offset,
// detecting whether it is a traditional table or an xref stream.
func (x *XRefParser) ParseSection(offset int64) (*XRefTable, error) {
	isStream, err := x.isXRefStream(offset)
	if err != nil {
		return nil, err
	}
	if isStream {
		return x.parseXRefStream(offset)
	}
	return x.parseXRefTable(offset)
}

// isXRefStream peeks at the section start: a traditional section begins
// with the "xref" keyword, an xref stream with "n g obj".
func (x *XRefParser) isXRefStream(offset int64) (bool, error) {
	if _, err := x.reader.Seek(offset, io.SeekStart); err != nil {
		return false, fmt.Errorf("seek to xref section: %w", err)
	}

	buf := make([]byte, 32)
	n, err := x.reader.Read(buf)
	if n == 0 && err != nil {
		return false, fmt.Errorf("read xref section start: %w", err)
	}
	head := strings.TrimLeft(string(buf[:n]), " \t\r\n")

	if strings.HasPrefix(head, "xref") {
		return false, nil
	}
	fields := strings.Fields(head)
	if len(fields) >= 3 && fields[2] == "obj" {
		return true, nil
	}
	// Lenient check: some writers put the digits right at the offset with
	// the keyword further along than our peek window.
	if len(fields) >= 1 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			return true, nil
		}
	}
	return false, fmt.Errorf("unrecognized xref section at offset %d", offset)
}

// parseXRefTable parses a traditional cross-reference table with its
// trailing "trailer" dictionary.
func (x *XRefParser) parseXRefTable(offset int64) (*XRefTable, error) {
	if _, err := x.reader.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to xref table: %w", err)
	}

	scanner := bufio.NewScanner(x.reader)

	if !scanner.Scan() {
		return nil, fmt.Errorf("missing xref keyword")
	}
	if line := strings.TrimSpace(scanner.Text()); line != "xref" {
		return nil, fmt.Errorf("expected 'xref' keyword, got %q", line)
	}

	table := NewXRefTable()
	foundTrailer := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "trailer" {
			trailer, err := x.parseTrailer(scanner)
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			table.Trailer = trailer
			foundTrailer = true
			break
		}

		// Subsection header: "firstObjNum count"
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid subsection header %q", line)
		}
		firstObjNum, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid first object number: %w", err)
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid subsection count: %w", err)
		}

		for i := 0; i < count; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("truncated xref subsection")
			}
			entry, err := parseTableEntry(scanner.Text())
			if err != nil {
				return nil, fmt.Errorf("xref entry: %w", err)
			}
			table.Set(firstObjNum+i, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan xref table: %w", err)
	}
	if !foundTrailer {
		return nil, fmt.Errorf("xref table missing trailer")
	}
	return table, nil
}

// parseTableEntry parses one 20-byte entry: "nnnnnnnnnn ggggg n|f".
func parseTableEntry(line string) (*XRefEntry, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 {
		return nil, fmt.Errorf("malformed entry %q", line)
	}

	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid offset: %w", err)
	}
	gen, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid generation: %w", err)
	}

	var inUse bool
	switch fields[2] {
	case "n":
		inUse = true
	case "f":
		inUse = false
	default:
		return nil, fmt.Errorf("invalid in-use flag %q", fields[2])
	}

	return &XRefEntry{Offset: offset, Generation: gen, InUse: inUse}, nil
}

// parseTrailer parses the dictionary following the "trailer" keyword. The
// remaining lines up to "startxref" are re-joined and handed to the
// object parser.
func (x *XRefParser) parseTrailer(scanner *bufio.Scanner) (Dict, error) {
	var sb strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "startxref") {
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	parser := NewParser(strings.NewReader(sb.String()))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("parse trailer dictionary: %w", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary: %T", obj)
	}
	return dict, nil
}

// parseXRefStream parses an xref stream (PDF 1.5+): an indirect stream
// object with /Type /XRef whose decoded payload holds binary entries laid
// out per the /W widths array. The stream dictionary doubles as trailer.
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	if _, err := x.reader.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to xref stream: %w", err)
	}

	parser := NewParser(x.reader)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("parse xref stream object: %w", err)
	}
	stream, ok := indObj.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref section is not a stream: %T", indObj.Object)
	}
	if typeName, ok := stream.Dict.GetName("Type"); !ok || string(typeName) != "XRef" {
		return nil, fmt.Errorf("stream at xref offset has /Type %v, expected /XRef", stream.Dict.Get("Type"))
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode xref stream: %w", err)
	}

	widths, err := xrefStreamWidths(stream.Dict)
	if err != nil {
		return nil, err
	}

	size, ok := stream.Dict.GetInt("Size")
	if !ok {
		return nil, fmt.Errorf("xref stream missing /Size")
	}

	// /Index defaults to [0 Size]: one subsection covering everything.
	index := []int{0, int(size)}
	if indexArr, ok := stream.Dict.GetArray("Index"); ok {
		if len(indexArr)%2 != 0 {
			return nil, fmt.Errorf("xref stream /Index has odd length %d", len(indexArr))
		}
		index = index[:0]
		for i := range indexArr {
			n, ok := indexArr[i].(Int)
			if !ok {
				return nil, fmt.Errorf("xref stream /Index element %d is %T", i, indexArr[i])
			}
			index = append(index, int(n))
		}
	}

	table := NewXRefTable()
	table.Trailer = stream.Dict

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			entry, read, err := parseXRefStreamEntry(data[pos:], widths)
			if err != nil {
				return nil, fmt.Errorf("xref stream entry for object %d: %w", first+j, err)
			}
			pos += read
			table.Set(first+j, entry)
		}
	}

	return table, nil
}

// xrefStreamWidths reads the /W array of field widths.
func xrefStreamWidths(dict Dict) ([3]int, error) {
	var widths [3]int
	wArr, ok := dict.GetArray("W")
	if !ok || len(wArr) != 3 {
		return widths, fmt.Errorf("xref stream missing or malformed /W array")
	}
	for i := 0; i < 3; i++ {
		n, ok := wArr[i].(Int)
		if !ok {
			return widths, fmt.Errorf("/W element %d is %T", i, wArr[i])
		}
		widths[i] = int(n)
	}
	return widths, nil
}

// parseXRefStreamEntry decodes one binary entry. Field 1 is the entry
// type (0 free, 1 regular, 2 compressed); a zero-width field 1 defaults
// to type 1 per the PDF specification.
func parseXRefStreamEntry(data []byte, w [3]int) (*XRefEntry, int, error) {
	total := w[0] + w[1] + w[2]
	if len(data) < total {
		return nil, 0, fmt.Errorf("truncated entry: need %d bytes, have %d", total, len(data))
	}

	readField := func(offset, width int) int64 {
		var v int64
		for i := 0; i < width; i++ {
			v = v<<8 | int64(data[offset+i])
		}
		return v
	}

	entryType := int64(1)
	if w[0] > 0 {
		entryType = readField(0, w[0])
	}
	f2 := readField(w[0], w[1])
	f3 := readField(w[0]+w[1], w[2])

	switch entryType {
	case 0:
		return &XRefEntry{Offset: f2, Generation: int(f3), InUse: false}, total, nil
	case 1:
		return &XRefEntry{Offset: f2, Generation: int(f3), InUse: true}, total, nil
	case 2:
		return &XRefEntry{
			InUse:          true,
			InObjectStream: true,
			StreamNumber:   int(f2),
			StreamIndex:    int(f3),
		}, total, nil
	default:
		return nil, 0, fmt.Errorf("unknown entry type %d", entryType)
	}
}

// ParseAll parses the newest cross-reference section and every earlier
// one reachable through /Prev (incremental updates) and /XRefStm (hybrid
// files), merged so that newer entries win.
func (x *XRefParser) ParseAll() (*XRefTable, error) {
	offset, err := x.FindStartXRef()
	if err != nil {
		return nil, err
	}

	var tables []*XRefTable
	var newestTrailer Dict
	seen := make(map[int64]bool)

	for {
		if seen[offset] {
			return nil, fmt.Errorf("cycle in xref /Prev chain at offset %d", offset)
		}
		seen[offset] = true

		table, err := x.ParseSection(offset)
		if err != nil {
			return nil, err
		}
		if newestTrailer == nil {
			newestTrailer = table.Trailer
		}

		// Hybrid-reference file: the table's trailer points at an
		// additional xref stream carrying the compressed objects.
		if stm, ok := table.Trailer.GetInt("XRefStm"); ok {
			if !seen[int64(stm)] {
				seen[int64(stm)] = true
				stmTable, err := x.parseXRefStream(int64(stm))
				if err != nil {
					return nil, fmt.Errorf("hybrid xref stream: %w", err)
				}
				// The stream stays after the classic section so its
				// entries take precedence in the merge.
				tables = append([]*XRefTable{stmTable}, tables...)
			}
		}

		// Oldest first.
		tables = append([]*XRefTable{table}, tables...)

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	merged := MergeXRefTables(tables...)
	// The newest section's trailer governs the document.
	if newestTrailer != nil {
		merged.Trailer = newestTrailer
	}
	return merged, nil
}

// MergeXRefTables merges tables in order from oldest to newest; later
// entries override earlier ones.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		merged.Trailer = table.Trailer
	}
	return merged
}
