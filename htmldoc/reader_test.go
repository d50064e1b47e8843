package htmldoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/registrar/transcript"
)

// openTestHTML parses an HTML fragment through the package.
func openTestHTML(t *testing.T, src string) *Reader {
	t.Helper()

	r, err := OpenReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })

	return r
}

func TestOpenReader(t *testing.T) {
	r := openTestHTML(t, `<html><body><table>
		<tr><th>Course Title</th><th>Grade</th><th>Average</th></tr>
		<tr><td>Biology</td><td>91</td><td>A</td></tr>
	</table></body></html>`)

	tables := r.Tables()
	if len(tables) != 1 {
		t.Fatalf("Tables() returned %d tables, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", tbl.RowCount())
	}
	if tbl.CellCount(0) != 3 {
		t.Errorf("CellCount(0) = %d, want 3", tbl.CellCount(0))
	}
	if got := tbl.CellText(0, 0); got != "Course Title" {
		t.Errorf("CellText(0,0) = %q, want 'Course Title'", got)
	}
	if got := tbl.CellText(1, 1); got != "91" {
		t.Errorf("CellText(1,1) = %q, want '91'", got)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.html")
	src := `<html><head><title>  Fall   Transcript </title></head><body>
		<table><tr><td>Biology</td></tr></table>
	</body></html>`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if got := r.Title(); got != "Fall Transcript" {
		t.Errorf("Title() = %q, want 'Fall Transcript'", got)
	}
	if len(r.Tables()) != 1 {
		t.Errorf("Tables() returned %d tables, want 1", len(r.Tables()))
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatal("Open() should fail for a missing file")
	}
}

func TestTables_UnclosedTags(t *testing.T) {
	// The HTML parser recovers from tag soup; cells missing their
	// closing tags still come through.
	r := openTestHTML(t, `<table>
		<tr><td>Biology<td>91<td>A
		<tr><td>Chemistry<td>88<td>B
	</table>`)

	tbl := r.Tables()[0]
	if tbl.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", tbl.RowCount())
	}
	if got := tbl.CellText(1, 2); got != "B" {
		t.Errorf("CellText(1,2) = %q, want 'B'", got)
	}
}

func TestTables_NestedTable(t *testing.T) {
	r := openTestHTML(t, `<html><body><table>
		<tr><td>Outer<table><tr><td>Inner</td></tr></table></td><td>Second</td></tr>
	</table></body></html>`)

	tables := r.Tables()
	if len(tables) != 1 {
		t.Fatalf("Tables() returned %d tables, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.RowCount() != 1 {
		t.Fatalf("RowCount() = %d, want 1", tbl.RowCount())
	}
	if got := tbl.CellText(0, 0); got != "Outer" {
		t.Errorf("CellText(0,0) = %q, want 'Outer' without nested content", got)
	}
	if got := tbl.CellText(0, 1); got != "Second" {
		t.Errorf("CellText(0,1) = %q, want 'Second'", got)
	}
}

func TestTables_Colspan(t *testing.T) {
	r := openTestHTML(t, `<table>
		<tr><td>A</td><td>B</td><td>C</td></tr>
		<tr><td colspan="3">1st Semester Courses</td></tr>
	</table>`)

	tbl := r.Tables()[0]
	if tbl.CellCount(1) != 1 {
		t.Fatalf("CellCount(1) = %d, want 1", tbl.CellCount(1))
	}
	if got := tbl.Rows[1][0].Span; got != 3 {
		t.Errorf("Span = %d, want 3", got)
	}
}

func TestTables_Formats(t *testing.T) {
	r := openTestHTML(t, `<table>
		<thead><tr><td>Course Title</td></tr></thead>
		<tbody>
			<tr><th>Grade</th></tr>
			<tr><td><strong>Biology</strong></td></tr>
			<tr><td><em>Honors</em></td></tr>
			<tr><td>Plain</td></tr>
		</tbody>
	</table>`)

	tbl := r.Tables()[0]
	for row, name := range []string{"thead cell", "th cell", "strong cell"} {
		f, err := tbl.CellFormat(row, 0)
		if err != nil {
			t.Fatalf("CellFormat(%d,0) error = %v", row, err)
		}
		if !f.Bold {
			t.Errorf("%s should read as bold", name)
		}
	}

	f, err := tbl.CellFormat(3, 0)
	if err != nil {
		t.Fatalf("CellFormat(3,0) error = %v", err)
	}
	if !f.Italic {
		t.Error("em cell should read as italic")
	}

	f, err = tbl.CellFormat(4, 0)
	if err != nil {
		t.Fatalf("CellFormat(4,0) error = %v", err)
	}
	if !f.IsZero() {
		t.Errorf("plain cell format = %+v, want zero", f)
	}
}

func TestTables_Alignment(t *testing.T) {
	r := openTestHTML(t, `<table><tr>
		<td align="center">91</td>
		<td style="color: red; text-align: right">A</td>
		<td style="TEXT-ALIGN : Center">B</td>
		<td>C</td>
	</tr></table>`)

	tbl := r.Tables()[0]
	wants := []transcript.Alignment{
		transcript.AlignCenter,
		transcript.AlignRight,
		transcript.AlignCenter,
		transcript.AlignDefault,
	}
	for col, want := range wants {
		f, err := tbl.CellFormat(0, col)
		if err != nil {
			t.Fatalf("CellFormat(0,%d) error = %v", col, err)
		}
		if f.Alignment != want {
			t.Errorf("cell %d alignment = %v, want %v", col, f.Alignment, want)
		}
	}
}

func TestTables_Names(t *testing.T) {
	r := openTestHTML(t, `<body>
		<table><caption> Fall  Term </caption><tr><td>A</td></tr></table>
		<table><tr><td>B</td></tr></table>
	</body>`)

	tables := r.Tables()
	if len(tables) != 2 {
		t.Fatalf("Tables() returned %d tables, want 2", len(tables))
	}
	if tables[0].Name != "Fall Term" {
		t.Errorf("first table name = %q, want 'Fall Term'", tables[0].Name)
	}
	if tables[1].Name != "Table 2" {
		t.Errorf("second table name = %q, want 'Table 2'", tables[1].Name)
	}
}

func TestTables_SkipsEmptyTables(t *testing.T) {
	r := openTestHTML(t, `<body>
		<table></table>
		<table><tr></tr></table>
		<table><tr><td>Kept</td></tr></table>
	</body>`)

	tables := r.Tables()
	if len(tables) != 1 {
		t.Fatalf("Tables() returned %d tables, want 1", len(tables))
	}
	if got := tables[0].CellText(0, 0); got != "Kept" {
		t.Errorf("CellText(0,0) = %q, want 'Kept'", got)
	}
}

func TestCleanFromHTML(t *testing.T) {
	r := openTestHTML(t, `<html><body><table>
		<tr><th>Course Title</th><th>Grade</th><th>Average</th></tr>
		<tr><td colspan="3">1st Semester Courses</td></tr>
		<tr><td>Biology G10 (Sec 2)</td><td align="center">91</td><td>A</td></tr>
		<tr><td>Study Hall</td><td>80</td><td>C</td></tr>
		<tr><td>Biology (Honors)</td><td>91</td><td>A</td></tr>
		<tr><td colspan="3">2nd Semester Courses</td></tr>
		<tr><td>Chemistry</td><td>88</td><td>B</td></tr>
	</table></body></html>`)

	tbl := r.ModelTables()[0]
	rpt, err := transcript.NewEngine().Process(tbl)
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

	wantTexts := []string{"Course Title", "1st Semester", "Biology", "2nd Semester", "Chemistry"}
	for row, want := range wantTexts {
		if got := tbl.CellText(row, 0); got != want {
			t.Errorf("CellText(%d,0) = %q, want %q", row, got, want)
		}
	}

	if tbl.CellCount(1) != 1 {
		t.Errorf("CellCount(1) = %d, want 1", tbl.CellCount(1))
	}
	f, err := tbl.CellFormat(1, 0)
	if err != nil {
		t.Fatalf("CellFormat(1,0) error = %v", err)
	}
	if !f.Bold || f.Alignment != transcript.AlignCenter {
		t.Errorf("semester header format = %+v, want bold centered", f)
	}

	// Captured grade alignment is re-applied to the rebuilt row
	f, err = tbl.CellFormat(2, 1)
	if err != nil {
		t.Fatalf("CellFormat(2,1) error = %v", err)
	}
	if f.Alignment != transcript.AlignCenter {
		t.Errorf("grade alignment = %v, want AlignCenter", f.Alignment)
	}
}
