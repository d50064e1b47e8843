package docx

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// readArchivePart extracts one part from serialized DOCX bytes.
func readArchivePart(t *testing.T, data []byte, name string) []byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading output archive: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return buf.Bytes()
	}
	t.Fatalf("part %s not found in output", name)
	return nil
}

func TestBytes_UntouchedDocumentIsIdentical(t *testing.T) {
	tableXML := `
<w:tbl>
  <w:tblPr>
    <w:tblBorders><w:top w:val="single"/></w:tblBorders>
  </w:tblPr>
  <w:tblGrid>
    <w:gridCol w:w="2880"/>
    <w:gridCol w:w="2880"/>
  </w:tblGrid>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Course Title</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>Average</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Biology</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>91</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>`

	docxPath := createTestDOCXWithTable(t, tableXML)
	original, err := os.ReadFile(docxPath)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	// A document that was only read serializes with every part byte
	// for byte identical to the input.
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		want := readArchivePart(t, original, name)
		got := readArchivePart(t, out, name)
		if !bytes.Equal(got, want) {
			t.Errorf("part %s changed:\ngot:  %s\nwant: %s", name, got, want)
		}
	}
}

func TestBytes_PreservesBinaryParts(t *testing.T) {
	// Build a DOCX carrying a non-XML part with arbitrary bytes.
	media := make([]byte, 256)
	for i := range media {
		media[i] = byte(i)
	}

	tmpDir := t.TempDir()
	docxPath := filepath.Join(tmpDir, "media.docx")

	f, err := os.Create(docxPath)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("[Content_Types].xml")
	w.Write([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	w, _ = zw.Create("word/document.xml")
	w.Write([]byte(`<w:document xmlns:w="` + nsW + `"><w:body><w:tbl><w:tr><w:tc><w:p><w:r><w:t>X</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body></w:document>`))
	w, _ = zw.Create("word/media/image1.png")
	w.Write(media)
	zw.Close()
	f.Close()

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := d.Tables()[0].SetCellText(0, 0, "Y"); err != nil {
		t.Fatalf("SetCellText() error = %v", err)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	if got := readArchivePart(t, out, "word/media/image1.png"); !bytes.Equal(got, media) {
		t.Error("media part should survive the rewrite unchanged")
	}
	if doc := readArchivePart(t, out, "word/document.xml"); !bytes.Contains(doc, []byte("<w:t>Y</w:t>")) {
		t.Errorf("document.xml should carry the new cell text, got: %s", doc)
	}
}

func TestBytes_SetCellTextRoundTrip(t *testing.T) {
	tableXML := `
<w:tbl>
  <w:tblGrid>
    <w:gridCol w:w="2880"/>
    <w:gridCol w:w="2880"/>
  </w:tblGrid>
  <w:tr>
    <w:tc><w:p><w:r><w:t>HR-Biology G10</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>91</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Keep &amp; Hold</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>88</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>`

	docxPath := createTestDOCXWithTable(t, tableXML)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := d.Tables()[0].SetCellText(0, 0, "Biology <Honors>"); err != nil {
		t.Fatalf("SetCellText() error = %v", err)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	reopened, err := OpenReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}

	table := reopened.Tables()[0]
	if got := table.CellText(0, 0); got != "Biology <Honors>" {
		t.Errorf("CellText(0,0) = %q, want 'Biology <Honors>'", got)
	}
	// The untouched row keeps its original entity-carrying bytes.
	if got := table.CellText(1, 0); got != "Keep & Hold" {
		t.Errorf("CellText(1,0) = %q, want 'Keep & Hold'", got)
	}
	doc := readArchivePart(t, out, "word/document.xml")
	if !bytes.Contains(doc, []byte("<w:t>Keep &amp; Hold</w:t>")) {
		t.Error("untouched row should be written back verbatim")
	}
}

func TestBytes_RemoveRow(t *testing.T) {
	tableXML := `
<w:tbl>
  <w:tblGrid>
    <w:gridCol w:w="2880"/>
  </w:tblGrid>
  <w:tr><w:tc><w:p><w:r><w:t>One</w:t></w:r></w:p></w:tc></w:tr>
  <w:tr><w:tc><w:p><w:r><w:t>Two</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>`

	docxPath := createTestDOCXWithTable(t, tableXML)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := d.Tables()[0].RemoveRow(1); err != nil {
		t.Fatalf("RemoveRow() error = %v", err)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	reopened, err := OpenReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	table := reopened.Tables()[0]
	if table.RowCount() != 1 {
		t.Errorf("RowCount() = %d, want 1", table.RowCount())
	}
	if got := table.CellText(0, 0); got != "One" {
		t.Errorf("CellText(0,0) = %q, want 'One'", got)
	}
}

func TestSave(t *testing.T) {
	docxPath := createTestDOCXWithTable(t, `
<w:tbl>
  <w:tblGrid><w:gridCol w:w="2880"/></w:tblGrid>
  <w:tr><w:tc><w:p><w:r><w:t>Saved</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>`)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "out.docx")
	if err := d.Save(outPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open(saved) error = %v", err)
	}
	if got := reopened.Tables()[0].CellText(0, 0); got != "Saved" {
		t.Errorf("CellText(0,0) = %q, want 'Saved'", got)
	}
}

func TestWrite(t *testing.T) {
	docxPath := createTestDOCXWithTable(t, `
<w:tbl>
  <w:tblGrid><w:gridCol w:w="2880"/></w:tblGrid>
  <w:tr><w:tc><w:p><w:r><w:t>Streamed</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>`)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	reopened, err := OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	if got := reopened.Tables()[0].CellText(0, 0); got != "Streamed" {
		t.Errorf("CellText(0,0) = %q, want 'Streamed'", got)
	}
}

// ============================================================================
// Property builders
// ============================================================================

func TestWriteRPr(t *testing.T) {
	var buf bytes.Buffer
	writeRPr(&buf, "w", transcript.CellFormat{FontName: "Arial", FontSize: 12, Bold: true})

	want := `<w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial"/><w:b/><w:sz w:val="24"/></w:rPr>`
	if got := buf.String(); got != want {
		t.Errorf("writeRPr = %s, want %s", got, want)
	}

	// A zero format writes nothing at all
	buf.Reset()
	writeRPr(&buf, "w", transcript.CellFormat{})
	if buf.Len() != 0 {
		t.Errorf("writeRPr(zero) = %s, want empty", buf.String())
	}
}

func TestWritePPr(t *testing.T) {
	var buf bytes.Buffer
	writePPr(&buf, "w", transcript.AlignCenter)

	want := `<w:pPr><w:jc w:val="center"/></w:pPr>`
	if got := buf.String(); got != want {
		t.Errorf("writePPr = %s, want %s", got, want)
	}

	buf.Reset()
	writePPr(&buf, "w", transcript.AlignDefault)
	if buf.Len() != 0 {
		t.Errorf("writePPr(default) = %s, want empty", buf.String())
	}
}

func TestWriteCellText(t *testing.T) {
	var buf bytes.Buffer
	writeCellText(&buf, "w", "A & B <C>")
	if got := buf.String(); got != `<w:t>A &amp; B &lt;C&gt;</w:t>` {
		t.Errorf("writeCellText = %s", got)
	}

	// Edge whitespace needs xml:space
	buf.Reset()
	writeCellText(&buf, "w", " padded ")
	if got := buf.String(); !strings.Contains(got, `xml:space="preserve"`) {
		t.Errorf("writeCellText should preserve edge whitespace, got %s", got)
	}

	buf.Reset()
	writeCellText(&buf, "w", "")
	if buf.Len() != 0 {
		t.Errorf("writeCellText(empty) = %s, want empty", buf.String())
	}
}

// ============================================================================
// Document synthesis
// ============================================================================

func TestBuild(t *testing.T) {
	table := model.NewTable(0, 0)
	table.Rows = [][]model.Cell{
		{
			{Text: "Course Title", Format: transcript.CellFormat{Bold: true}},
			{Text: "Average", Format: transcript.CellFormat{Bold: true}},
		},
		{
			{Text: "1st Semester", Format: transcript.CellFormat{Bold: true, Alignment: transcript.AlignCenter}, Span: 2},
		},
		{
			{Text: "Biology"},
			{Text: "91", Format: transcript.CellFormat{Alignment: transcript.AlignCenter}},
		},
	}

	data, err := Build(table)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	d, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}

	tables := d.Tables()
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	got := tables[0]
	if got.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", got.RowCount())
	}
	if text := got.CellText(0, 0); text != "Course Title" {
		t.Errorf("CellText(0,0) = %q, want 'Course Title'", text)
	}
	if got.CellCount(1) != 1 {
		t.Errorf("CellCount(1) = %d, want 1", got.CellCount(1))
	}

	format, err := got.CellFormat(1, 0)
	if err != nil {
		t.Fatalf("CellFormat(1,0) error = %v", err)
	}
	if !format.Bold || format.Alignment != transcript.AlignCenter {
		t.Errorf("marker format = %+v, want bold centered", format)
	}

	mt := got.ToModelTable()
	if mt.Rows[1][0].Span != 2 {
		t.Errorf("marker span = %d, want 2", mt.Rows[1][0].Span)
	}
}

func TestBuild_NoTables(t *testing.T) {
	data, err := Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	d, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	if len(d.Tables()) != 0 {
		t.Errorf("expected no tables, got %d", len(d.Tables()))
	}
}

func TestBuildFile(t *testing.T) {
	table := model.FromRows([][]string{{"Chemistry", "88"}})

	outPath := filepath.Join(t.TempDir(), "built.docx")
	if err := BuildFile(outPath, table); err != nil {
		t.Fatalf("BuildFile() error = %v", err)
	}

	d, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open(built) error = %v", err)
	}
	if got := d.Tables()[0].CellText(0, 0); got != "Chemistry" {
		t.Errorf("CellText(0,0) = %q, want 'Chemistry'", got)
	}
}

// ============================================================================
// Cleaning engine round trip
// ============================================================================

const transcriptTableXML = `
<w:tbl>
  <w:tblGrid>
    <w:gridCol w:w="3120"/>
    <w:gridCol w:w="3120"/>
    <w:gridCol w:w="3120"/>
  </w:tblGrid>
  <w:tr>
    <w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Course Title</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Grade</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Average</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:tcPr><w:gridSpan w:val="3"/></w:tcPr><w:p><w:r><w:t>1st Semester Courses</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Biology G10 (Sec 2)</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>91</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Study Hall</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>80</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>C</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Biology (Honors)</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>91</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:tcPr><w:gridSpan w:val="3"/></w:tcPr><w:p><w:r><w:t>2nd Semester Courses</w:t></w:r></w:p></w:tc>
  </w:tr>
  <w:tr>
    <w:tc><w:p><w:r><w:t>Chemistry</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>88</w:t></w:r></w:p></w:tc>
    <w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>`

func TestCleanRoundTrip(t *testing.T) {
	docxPath := createTestDOCXWithTable(t, transcriptTableXML)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	engine := transcript.NewEngine()
	rpt, err := engine.Process(d.Tables()[0])
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if rpt.Records != 2 {
		t.Errorf("Records = %d, want 2", rpt.Records)
	}
	if rpt.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", rpt.Duplicates)
	}
	if rpt.NoiseOnly != 1 {
		t.Errorf("NoiseOnly = %d, want 1", rpt.NoiseOnly)
	}
	if rpt.Markers != 2 {
		t.Errorf("Markers = %d, want 2", rpt.Markers)
	}
	if rpt.RowsWritten != 5 {
		t.Errorf("RowsWritten = %d, want 5", rpt.RowsWritten)
	}
	if len(rpt.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", rpt.Warnings)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	reopened, err := OpenReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}

	table := reopened.Tables()[0]
	if table.RowCount() != 5 {
		t.Fatalf("RowCount() = %d, want 5", table.RowCount())
	}

	wantTexts := []string{"Course Title", "1st Semester", "Biology", "2nd Semester", "Chemistry"}
	for row, want := range wantTexts {
		if got := table.CellText(row, 0); got != want {
			t.Errorf("CellText(%d,0) = %q, want %q", row, got, want)
		}
	}
	if got := table.CellText(2, 1); got != "91" {
		t.Errorf("CellText(2,1) = %q, want '91'", got)
	}
	if got := table.CellText(4, 2); got != "B" {
		t.Errorf("CellText(4,2) = %q, want 'B'", got)
	}

	// Semester headers span the full width, bold and centered
	if table.CellCount(1) != 1 {
		t.Errorf("CellCount(1) = %d, want 1", table.CellCount(1))
	}
	format, err := table.CellFormat(1, 0)
	if err != nil {
		t.Fatalf("CellFormat(1,0) error = %v", err)
	}
	if !format.Bold || format.Alignment != transcript.AlignCenter {
		t.Errorf("semester header format = %+v, want bold centered", format)
	}

	// Cloned data rows keep the source row's explicit alignment
	format, err = table.CellFormat(2, 1)
	if err != nil {
		t.Fatalf("CellFormat(2,1) error = %v", err)
	}
	if format.Alignment != transcript.AlignCenter {
		t.Errorf("grade cell alignment = %v, want AlignCenter", format.Alignment)
	}

	// Header formatting survives untouched
	format, err = table.CellFormat(0, 0)
	if err != nil {
		t.Fatalf("CellFormat(0,0) error = %v", err)
	}
	if !format.Bold {
		t.Error("header row should stay bold")
	}
}

func TestCleanRoundTrip_Idempotent(t *testing.T) {
	docxPath := createTestDOCXWithTable(t, transcriptTableXML)

	d, err := Open(docxPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	engine := transcript.NewEngine()
	if _, err := engine.Process(d.Tables()[0]); err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	first, err := d.Bytes()
	if err != nil {
		t.Fatalf("first Bytes() error = %v", err)
	}

	reopened, err := OpenReader(bytes.NewReader(first), int64(len(first)))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}

	rpt, err := engine.Process(reopened.Tables()[0])
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if rpt.Records != 2 {
		t.Errorf("second pass Records = %d, want 2", rpt.Records)
	}
	if rpt.Duplicates != 0 {
		t.Errorf("second pass Duplicates = %d, want 0", rpt.Duplicates)
	}
	if rpt.NoiseOnly != 0 {
		t.Errorf("second pass NoiseOnly = %d, want 0", rpt.NoiseOnly)
	}

	second, err := reopened.Bytes()
	if err != nil {
		t.Fatalf("second Bytes() error = %v", err)
	}

	// Cleaning a cleaned document must not change it.
	got := readArchivePart(t, second, "word/document.xml")
	want := readArchivePart(t, first, "word/document.xml")
	if !bytes.Equal(got, want) {
		t.Errorf("second pass changed document.xml:\ngot:  %s\nwant: %s", got, want)
	}
}
