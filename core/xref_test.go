package core

import (
	"bytes"
	"fmt"
	"testing"
)

func TestFindStartXRef(t *testing.T) {
	data := []byte("%PDF-1.4\nstuff\nstartxref\n12345\n%%EOF")
	parser := NewXRefParser(bytes.NewReader(data))

	offset, err := parser.FindStartXRef()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 12345 {
		t.Errorf("offset = %d, want 12345", offset)
	}
}

func TestFindStartXRefMissing(t *testing.T) {
	parser := NewXRefParser(bytes.NewReader([]byte("%PDF-1.4\nno trailer here")))
	if _, err := parser.FindStartXRef(); err == nil {
		t.Error("expected error for missing startxref")
	}
}

func TestParseXRefTable(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	xrefOffset := int64(buf.Len())
	buf.WriteString("xref\n")
	buf.WriteString("0 3\n")
	buf.WriteString("0000000000 65535 f \n")
	buf.WriteString("0000000017 00000 n \n")
	buf.WriteString("0000000081 00000 n \n")
	buf.WriteString("trailer\n")
	buf.WriteString("<< /Size 3 /Root 1 0 R >>\n")
	buf.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF", xrefOffset))

	parser := NewXRefParser(bytes.NewReader(buf.Bytes()))
	table, err := parser.ParseSection(xrefOffset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Size() != 3 {
		t.Fatalf("size = %d, want 3", table.Size())
	}

	entry, ok := table.Get(0)
	if !ok || entry.InUse {
		t.Errorf("object 0 should be a free entry, got %+v", entry)
	}

	entry, ok = table.Get(1)
	if !ok || !entry.InUse || entry.Offset != 17 {
		t.Errorf("object 1 = %+v, want in-use at offset 17", entry)
	}

	if size, _ := table.Trailer.GetInt("Size"); size != 3 {
		t.Errorf("trailer /Size = %d, want 3", size)
	}
	if ref, ok := table.Trailer.GetIndirectRef("Root"); !ok || ref.Number != 1 {
		t.Errorf("trailer /Root = %v, want 1 0 R", table.Trailer.Get("Root"))
	}
}

func TestParseXRefTableMultipleSubsections(t *testing.T) {
	var buf bytes.Buffer
	offset := int64(buf.Len())
	buf.WriteString("xref\n")
	buf.WriteString("0 1\n")
	buf.WriteString("0000000000 65535 f \n")
	buf.WriteString("5 2\n")
	buf.WriteString("0000000100 00000 n \n")
	buf.WriteString("0000000200 00000 n \n")
	buf.WriteString("trailer\n<< /Size 7 >>\n")

	parser := NewXRefParser(bytes.NewReader(buf.Bytes()))
	table, err := parser.ParseSection(offset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry, ok := table.Get(5); !ok || entry.Offset != 100 {
		t.Errorf("object 5 = %+v, want offset 100", entry)
	}
	if entry, ok := table.Get(6); !ok || entry.Offset != 200 {
		t.Errorf("object 6 = %+v, want offset 200", entry)
	}
	if _, ok := table.Get(1); ok {
		t.Error("object 1 should not exist")
	}
}

// buildXRefStream assembles an uncompressed xref stream object with
// /W [1 2 1] and the given entry rows.
func buildXRefStream(objNum int, size int, extraTrailer string, rows [][4]int) []byte {
	var payload bytes.Buffer
	for _, row := range rows {
		payload.WriteByte(byte(row[0]))
		payload.WriteByte(byte(row[1] >> 8))
		payload.WriteByte(byte(row[1]))
		payload.WriteByte(byte(row[2]))
		_ = row[3]
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d 0 obj\n", objNum)
	fmt.Fprintf(&buf, "<< /Type /XRef /Size %d /W [1 2 1] /Length %d %s>>\n", size, payload.Len(), extraTrailer)
	buf.WriteString("stream\n")
	buf.Write(payload.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
	return buf.Bytes()
}

func TestParseXRefStream(t *testing.T) {
	// Object 0 free, object 1 at offset 17, object 2 compressed in
	// object stream 5 at index 3.
	data := buildXRefStream(3, 3, "/Root 1 0 R ", [][4]int{
		{0, 0, 255, 0},
		{1, 17, 0, 0},
		{2, 5, 3, 0},
	})

	parser := NewXRefParser(bytes.NewReader(data))
	table, err := parser.ParseSection(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry, ok := table.Get(0); !ok || entry.InUse {
		t.Errorf("object 0 = %+v, want free", entry)
	}
	if entry, ok := table.Get(1); !ok || !entry.InUse || entry.Offset != 17 || entry.InObjectStream {
		t.Errorf("object 1 = %+v, want regular at offset 17", entry)
	}
	entry, ok := table.Get(2)
	if !ok || !entry.InObjectStream || entry.StreamNumber != 5 || entry.StreamIndex != 3 {
		t.Errorf("object 2 = %+v, want compressed in stream 5 index 3", entry)
	}
}

func TestParseXRefStreamWithIndex(t *testing.T) {
	// /Index [10 2]: two entries covering objects 10 and 11.
	data := buildXRefStream(3, 12, "/Index [10 2] ", [][4]int{
		{1, 100, 0, 0},
		{1, 200, 0, 0},
	})

	parser := NewXRefParser(bytes.NewReader(data))
	table, err := parser.ParseSection(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry, ok := table.Get(10); !ok || entry.Offset != 100 {
		t.Errorf("object 10 = %+v, want offset 100", entry)
	}
	if entry, ok := table.Get(11); !ok || entry.Offset != 200 {
		t.Errorf("object 11 = %+v, want offset 200", entry)
	}
	if _, ok := table.Get(0); ok {
		t.Error("object 0 should not exist with /Index [10 2]")
	}
}

func TestParseAllFollowsPrev(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	oldOffset := int64(buf.Len())
	buf.WriteString("xref\n0 2\n")
	buf.WriteString("0000000000 65535 f \n")
	buf.WriteString("0000000100 00000 n \n")
	buf.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n")

	newOffset := int64(buf.Len())
	buf.WriteString("xref\n1 1\n")
	buf.WriteString("0000000200 00000 n \n")
	fmt.Fprintf(&buf, "trailer\n<< /Size 2 /Root 1 0 R /Prev %d >>\n", oldOffset)

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", newOffset)

	parser := NewXRefParser(bytes.NewReader(buf.Bytes()))
	table, err := parser.ParseAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The newer section's entry for object 1 wins.
	if entry, ok := table.Get(1); !ok || entry.Offset != 200 {
		t.Errorf("object 1 = %+v, want offset 200 from newest section", entry)
	}
	if entry, ok := table.Get(0); !ok || entry.InUse {
		t.Errorf("object 0 = %+v, want free entry carried from old section", entry)
	}

	// The newest trailer governs.
	if _, ok := table.Trailer.GetInt("Prev"); !ok {
		t.Error("merged trailer should be the newest one, which has /Prev")
	}
}

func TestParseAllDetectsCycle(t *testing.T) {
	var buf bytes.Buffer
	offset := int64(buf.Len())
	fmt.Fprintf(&buf, "xref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 /Prev %d >>\n", offset)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", offset)

	parser := NewXRefParser(bytes.NewReader(buf.Bytes()))
	if _, err := parser.ParseAll(); err == nil {
		t.Error("expected error for /Prev cycle")
	}
}

func TestMergeXRefTables(t *testing.T) {
	older := NewXRefTable()
	older.Set(1, &XRefEntry{Offset: 10, InUse: true})
	older.Set(2, &XRefEntry{Offset: 20, InUse: true})

	newer := NewXRefTable()
	newer.Set(2, &XRefEntry{Offset: 99, InUse: true})

	merged := MergeXRefTables(older, newer)
	if entry, _ := merged.Get(1); entry == nil || entry.Offset != 10 {
		t.Errorf("object 1 = %+v, want offset 10", entry)
	}
	if entry, _ := merged.Get(2); entry == nil || entry.Offset != 99 {
		t.Errorf("object 2 = %+v, want offset 99 from newer table", entry)
	}
}
