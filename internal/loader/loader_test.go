package loader

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("report.pdf", []byte("%PDF-1.4"))
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported cause, got %v", err)
	}
	if le.Name != "report.pdf" {
		t.Fatalf("LoadError.Name = %q, want report.pdf", le.Name)
	}
}

func TestLoadCSV(t *testing.T) {
	data := []byte("region, sales\nEast,10\nWest,20\n")
	tbl, err := Load("sales.csv", data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := strings.Join(tbl.Columns, ","); got != "region,sales" {
		t.Fatalf("columns = %q", got)
	}
	if tbl.NumRows() != 2 || tbl.Rows[1][1] != "20" {
		t.Fatalf("rows = %+v", tbl.Rows)
	}
	if tbl.Name != "sales.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
}

func TestLoadCSVRaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n3,4,5,6\n")
	tbl, err := Load("ragged.csv", data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, row := range tbl.Rows {
		if len(row) != 3 {
			t.Fatalf("row %d has %d cells, want 3: %v", i, len(row), row)
		}
	}
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	data := buildXLSX(t,
		[]string{"name", "score"},
		[][]string{{"alice", "9.5"}, {"bob", "7"}})
	tbl, err := Load("people.xlsx", data)
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	if got := strings.Join(tbl.Columns, ","); got != "name,score" {
		t.Fatalf("columns = %q", got)
	}
	if tbl.NumRows() != 2 || tbl.Rows[0][0] != "alice" || tbl.Rows[1][1] != "7" {
		t.Fatalf("rows = %+v", tbl.Rows)
	}
}

func TestLoadXLSXNotAZip(t *testing.T) {
	_, err := Load("broken.xlsx", []byte("this is not a workbook"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T: %v", err, err)
	}
}

func TestCacheMemoization(t *testing.T) {
	cache := NewCache()
	data := []byte("a,b\n1,2\n")

	first, err := cache.Load("x.csv", data)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := cache.Load("x.csv", data)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Fatalf("same file should hit the cache and return the same table")
	}

	// Different content under the same name is a different file.
	third, err := cache.Load("x.csv", []byte("a,b\n3,4\n"))
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third == first {
		t.Fatalf("changed content should miss the cache")
	}
	if cache.Len() != 2 {
		t.Fatalf("cache holds %d entries, want 2", cache.Len())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Load("x.pdf", []byte("nope")); err == nil {
		t.Fatalf("expected load failure")
	}
	if cache.Len() != 0 {
		t.Fatalf("failed load was cached")
	}
}

func TestFingerprintDistinguishesNameAndData(t *testing.T) {
	a := Fingerprint("x.csv", []byte("1"))
	b := Fingerprint("x.csv", []byte("2"))
	c := Fingerprint("y.csv", []byte("1"))
	if a == b || a == c {
		t.Fatalf("fingerprints collide: %s %s %s", a, b, c)
	}
}

// buildXLSX assembles a minimal single-sheet workbook with inline strings.
func buildXLSX(t *testing.T, header []string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, body string) {
		t.Helper()
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	write("xl/workbook.xml", `<?xml version="1.0"?>
<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets>
</workbook>`)
	write("xl/_rels/workbook.xml.rels", `<?xml version="1.0"?>
<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`)

	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0"?><worksheet><sheetData>`)
	writeRow := func(rowIdx int, cells []string) {
		fmt.Fprintf(&sheet, `<row r="%d">`, rowIdx)
		for i, cell := range cells {
			ref := fmt.Sprintf("%c%d", 'A'+i, rowIdx)
			fmt.Fprintf(&sheet, `<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, cell)
		}
		sheet.WriteString(`</row>`)
	}
	writeRow(1, header)
	for i, row := range rows {
		writeRow(i+2, row)
	}
	sheet.WriteString(`</sheetData></worksheet>`)
	write("xl/worksheets/sheet1.xml", sheet.String())

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
