// Package transcript implements the cleaning engine for academic transcript
// tables: title normalization, row classification, duplicate resolution, and
// table rebuilding.
//
// The engine operates on any table through the Table interface, so the same
// pass works against DOCX, XLSX, or in-memory tables. A pass over one table
// is synchronous and single-threaded; all intermediate state is scoped to the
// call and discarded when it returns.
//
// Basic usage:
//
//	engine := transcript.NewEngine()
//	report, err := engine.Process(table)
//	if err != nil {
//	    // table was left partially rebuilt; discard the document
//	}
package transcript

// Semester identifies which half of the academic year a course record
// belongs to. SemesterUnset marks records encountered before any semester
// marker row; these are treated as year-long courses.
type Semester int

const (
	SemesterUnset Semester = iota
	SemesterFirst
	SemesterSecond
)

// String returns a short lowercase name for the semester.
func (s Semester) String() string {
	switch s {
	case SemesterFirst:
		return "first"
	case SemesterSecond:
		return "second"
	default:
		return "none"
	}
}

// Label returns the display text used for the semester's group header row.
func (s Semester) Label() string {
	switch s {
	case SemesterFirst:
		return "1st Semester"
	case SemesterSecond:
		return "2nd Semester"
	default:
		return "Full Year"
	}
}

// RowKind is the classification assigned to one table row.
type RowKind int

const (
	// RowHeader is the column header row (row 0, or a row repeating the
	// header labels further down the table).
	RowHeader RowKind = iota
	// RowSemesterMarker is a row announcing a semester section, such as
	// "1st Semester".
	RowSemesterMarker
	// RowData is a course row: title, numeric grade, score.
	RowData
	// RowMalformed is anything else. Malformed rows are silently skipped.
	RowMalformed
)

// String returns a short lowercase name for the row kind.
func (k RowKind) String() string {
	switch k {
	case RowHeader:
		return "header"
	case RowSemesterMarker:
		return "semester-marker"
	case RowData:
		return "data"
	default:
		return "malformed"
	}
}

// Alignment is a paragraph-level horizontal alignment.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// String returns the lowercase name of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "default"
	}
}

// CellFormat describes the visual formatting of one table cell: the
// run-level font attributes and the paragraph-level alignment. The zero
// value means "host defaults".
type CellFormat struct {
	FontName  string
	FontSize  float64 // points; 0 means unset
	Bold      bool
	Italic    bool
	Alignment Alignment
}

// IsZero reports whether the format carries no explicit attributes.
func (f CellFormat) IsZero() bool {
	return f == CellFormat{}
}

// CourseRecord is one surviving course row. Records are created during
// classification and never mutated afterwards.
type CourseRecord struct {
	// Title is the normalized course title, including the leading "+ "
	// distinction marker when present.
	Title string
	// Grade and Score are carried through verbatim from the source row.
	Grade string
	Score string
	// Semester is the bucket the record was filed under.
	Semester Semester
	// Formats holds the captured formatting of the title, grade, and
	// score cells, in that order. It is nil when capture failed.
	Formats []CellFormat
	// SourceRow is the row index the record was read from, in the
	// table's row numbering at load time. -1 when unknown.
	SourceRow int
}

// Table is the engine's view of one table in a host document. Row and
// column indexes are zero-based. Reads never fail; structural writes
// report errors, which abort the rebuild of the enclosing document.
type Table interface {
	// RowCount returns the number of rows currently in the table.
	RowCount() int
	// CellCount returns the number of cells in the given row.
	CellCount(row int) int
	// CellText returns the text content of a cell. Out-of-range
	// coordinates yield "".
	CellText(row, col int) string
	// SetCellText replaces the text content of a cell.
	SetCellText(row, col int, text string) error
	// CellFormat reports the formatting of a cell. An error means the
	// formatting could not be read; the engine records a warning and
	// falls back to defaults.
	CellFormat(row, col int) (CellFormat, error)
	// SetCellFormat applies formatting to a cell.
	SetCellFormat(row, col int, format CellFormat) error
	// AppendRow adds a row with the given number of cells to the end of
	// the table and returns its index.
	AppendRow(cells int) (int, error)
	// RemoveRow deletes the row at the given index.
	RemoveRow(row int) error
}

// MarkerAppender is implemented by hosts that can render a semester
// header row as a single cell spanning the full table width. Hosts
// without it get the header label written into the row's first cell.
type MarkerAppender interface {
	AppendMarkerRow(text string, format CellFormat) (int, error)
}

// RowCloner is implemented by hosts that can append a copy of a source
// row with new cell texts, preserving markup the CellFormat model does
// not capture (borders, shading, column widths). The source index
// refers to the table's rows as they were when the table was loaded,
// even after rows have been removed.
type RowCloner interface {
	AppendRowFrom(source int, texts []string) (int, error)
}
