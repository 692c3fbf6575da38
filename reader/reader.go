package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/tsawler/ghostink/core"
	"github.com/tsawler/ghostink/pages"
)

// PDFVersion identifies the version declared in the file header.
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as "major.minor".
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader provides access to the objects and pages of a PDF document.
type Reader struct {
	rs          io.ReadSeeker
	ra          io.ReaderAt
	closer      io.Closer
	xrefTable   *core.XRefTable
	trailer     core.Dict
	version     PDFVersion
	objCache    map[int]core.Object
	objStmCache map[int]*core.ObjectStream
	size        int64
	pageTree    *pages.PageTree
}

// Ensure Reader implements pages.ObjectResolver.
var _ pages.ObjectResolver = (*Reader)(nil)

var headerVersionRE = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// NewReader creates a reader over rs, which must contain a complete PDF
// document. The caller keeps ownership of rs.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("determine size: %w", err)
	}

	// Object loading may recurse (an indirect /Length resolved while a
	// stream is being parsed), so each object is read through its own
	// section reader rather than the shared seek position.
	ra, ok := rs.(io.ReaderAt)
	if !ok {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek to start: %w", err)
		}
		data, err := io.ReadAll(rs)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		br := bytes.NewReader(data)
		rs = br
		ra = br
	}

	r := &Reader{
		rs:          rs,
		ra:          ra,
		objCache:    make(map[int]core.Object),
		objStmCache: make(map[int]*core.ObjectStream),
		size:        size,
	}

	version, err := r.parseHeader()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	r.version = version

	xrefParser := core.NewXRefParser(rs)
	table, err := xrefParser.ParseAll()
	if err != nil {
		return nil, fmt.Errorf("load xref: %w", err)
	}
	r.xrefTable = table
	r.trailer = table.Trailer

	return r, nil
}

// Open opens the named PDF file. Close releases the underlying file.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file

	return r, nil
}

// FromBytes creates a reader over an in-memory PDF document.
func FromBytes(data []byte) (*Reader, error) {
	return NewReader(bytes.NewReader(data))
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// parseHeader reads and validates the %PDF-x.y header. Some producers
// prepend junk before the marker, so the match is searched within the
// first kilobyte.
func (r *Reader) parseHeader() (PDFVersion, error) {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return PDFVersion{}, fmt.Errorf("seek to start: %w", err)
	}

	buf := make([]byte, 1024)
	n, err := r.rs.Read(buf)
	if n == 0 && err != nil {
		return PDFVersion{}, fmt.Errorf("read header: %w", err)
	}
	buf = buf[:n]

	loc := headerVersionRE.FindSubmatchIndex(buf)
	if loc == nil {
		return PDFVersion{}, fmt.Errorf("missing %%PDF header")
	}

	var major, minor int
	fmt.Sscanf(string(buf[loc[2]:loc[3]]), "%d", &major)
	fmt.Sscanf(string(buf[loc[4]:loc[5]]), "%d", &minor)

	return PDFVersion{Major: major, Minor: minor}, nil
}

// Version returns the PDF version from the file header.
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// Size returns the document size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// GetObject loads the object with the given number, reading it either
// from its byte offset or from the object stream that contains it.
// Loaded objects are cached.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	entry, ok := r.xrefTable.Get(objNum)
	if !ok {
		return nil, fmt.Errorf("object %d not found in xref table", objNum)
	}
	if !entry.InUse {
		return nil, fmt.Errorf("object %d is free", objNum)
	}

	var obj core.Object
	var err error
	if entry.InObjectStream {
		obj, err = r.getCompressedObject(objNum, entry)
	} else {
		obj, err = r.getObjectAt(objNum, entry.Offset)
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

// getObjectAt parses an uncompressed indirect object at the given offset.
func (r *Reader) getObjectAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= r.size {
		return nil, fmt.Errorf("object %d offset %d out of range", objNum, offset)
	}

	parser := core.NewParser(io.NewSectionReader(r.ra, offset, r.size-offset))
	parser.SetReferenceResolver(r)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("parse object %d: %w", objNum, err)
	}

	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}

	return indObj.Object, nil
}

// getCompressedObject loads an object stored inside an object stream.
func (r *Reader) getCompressedObject(objNum int, entry *core.XRefEntry) (core.Object, error) {
	objStm, err := r.getObjectStream(entry.StreamNumber)
	if err != nil {
		return nil, fmt.Errorf("load object stream %d for object %d: %w", entry.StreamNumber, objNum, err)
	}

	obj, num, err := objStm.GetObjectByIndex(entry.StreamIndex)
	if err == nil && num == objNum {
		return obj, nil
	}

	// Index mismatch happens with sloppy writers. Fall back to a lookup
	// by object number.
	obj, err = objStm.GetObject(objNum)
	if err != nil {
		return nil, fmt.Errorf("object %d not in object stream %d: %w", objNum, entry.StreamNumber, err)
	}
	return obj, nil
}

// getObjectStream loads and caches the object stream with the given number.
func (r *Reader) getObjectStream(streamNum int) (*core.ObjectStream, error) {
	if objStm, ok := r.objStmCache[streamNum]; ok {
		return objStm, nil
	}

	entry, ok := r.xrefTable.Get(streamNum)
	if !ok || !entry.InUse || entry.InObjectStream {
		return nil, fmt.Errorf("invalid xref entry for object stream %d", streamNum)
	}

	obj, err := r.getObjectAt(streamNum, entry.Offset)
	if err != nil {
		return nil, err
	}

	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is not a stream: %T", streamNum, obj)
	}

	objStm, err := core.NewObjectStream(stream)
	if err != nil {
		return nil, err
	}

	r.objStmCache[streamNum] = objStm
	return objStm, nil
}

// ResolveReference resolves an indirect reference to its object.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve follows obj if it is an indirect reference, otherwise returns
// it unchanged. Implements pages.ObjectResolver.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// ResolveDeep recursively resolves indirect references inside arrays and
// dictionaries. Implements pages.ObjectResolver.
func (r *Reader) ResolveDeep(obj core.Object) (core.Object, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}

	switch v := resolved.(type) {
	case core.Array:
		result := make(core.Array, len(v))
		for i, elem := range v {
			resolvedElem, err := r.ResolveDeep(elem)
			if err != nil {
				return nil, err
			}
			result[i] = resolvedElem
		}
		return result, nil

	case core.Dict:
		result := make(core.Dict)
		for key, val := range v {
			resolvedVal, err := r.ResolveDeep(val)
			if err != nil {
				return nil, err
			}
			result[key] = resolvedVal
		}
		return result, nil

	default:
		return resolved, nil
	}
}

// GetCatalog returns the document catalog.
func (r *Reader) GetCatalog() (core.Dict, error) {
	rootRef := r.trailer.Get("Root")
	if rootRef == nil {
		return nil, fmt.Errorf("trailer missing /Root entry")
	}

	obj, err := r.Resolve(rootRef)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}

	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}

	return catalog, nil
}

// PageCount returns the number of pages in the document.
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count()
}

// GetPage returns the page at the given zero-based index.
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.GetPage(index)
}

func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil {
		return nil
	}

	catalog, err := r.GetCatalog()
	if err != nil {
		return fmt.Errorf("get catalog: %w", err)
	}

	pagesRef := catalog.Get("Pages")
	if pagesRef == nil {
		return fmt.Errorf("catalog missing /Pages entry")
	}

	pagesObj, err := r.Resolve(pagesRef)
	if err != nil {
		return fmt.Errorf("resolve page tree root: %w", err)
	}

	pagesDict, ok := pagesObj.(core.Dict)
	if !ok {
		return fmt.Errorf("page tree root is not a dictionary: %T", pagesObj)
	}

	r.pageTree = pages.NewPageTree(pagesDict, r)
	return nil
}

// PageContent returns the decoded content of a page. Multiple content
// streams are concatenated with a separating newline, since operator
// boundaries may fall on stream boundaries.
func (r *Reader) PageContent(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, fmt.Errorf("get contents: %w", err)
	}
	if len(contents) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, contentObj := range contents {
		stream, ok := contentObj.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode content stream: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
