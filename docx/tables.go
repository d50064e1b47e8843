package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Table is one top-level <w:tbl> element of the document body. It
// implements transcript.Table plus the marker-row and row-cloning
// upgrades, so the cleaning engine can rewrite it in place.
//
// Rows and cells remember their original byte spans. A row that is
// never touched is written back verbatim; a rewritten or cloned row
// reuses the original trPr/tcPr/pPr/rPr bytes so borders, widths and
// run styling survive the rebuild.
type Table struct {
	// Index is the zero-based position of the table in the body.
	Index int

	span     elementSpan // location within word/document.xml
	nsPrefix string      // namespace prefix of the tbl element, usually "w"
	openTag  []byte
	closeTag []byte
	prefix   []byte // tblPr, tblGrid and whitespace before the first row
	suffix   []byte // whitespace between the last row and the close tag
	colCount int

	rows     []*tableRow
	origRows []*tableRow // load-time snapshot for row cloning
}

// tableRow is one <w:tr>. Synthetic rows have no raw bytes.
type tableRow struct {
	raw       []byte
	lead      []byte // bytes between the previous row and this one
	openTag   []byte
	trPr      []byte
	cells     []*tableCell
	synthetic bool
}

func (r *tableRow) dirty() bool {
	for _, c := range r.cells {
		if c.dirty {
			return true
		}
	}
	return false
}

// tableCell is one <w:tc> with its formatting parts kept as raw bytes.
type tableCell struct {
	raw  []byte
	tcPr []byte
	pPr  []byte // first paragraph's properties
	rPr  []byte // first run's properties

	text       string
	format     transcript.CellFormat
	origFormat transcript.CellFormat
	gridSpan   int
	dirty      bool

	paraTexts []string // scratch during parsing
}

var (
	_ transcript.Table          = (*Table)(nil)
	_ transcript.MarkerAppender = (*Table)(nil)
	_ transcript.RowCloner      = (*Table)(nil)
)

// ============================================================================
// Parsing
// ============================================================================

// parseTable walks the raw bytes of a single <w:tbl> element and builds
// the row/cell structure with byte spans preserved.
func parseTable(data []byte, resolver *StyleResolver) (*Table, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	t := &Table{}
	var (
		tblDepth      int
		row           *tableRow
		rowStart      int
		cell          *tableCell
		cellStart     int
		trPrStart     = -1
		tcPrStart     = -1
		pPrStart      = -1
		rPrStart      = -1
		runIndex      int
		inText        bool
		firstRowStart = -1
		lastRowEnd    = -1
		closeStart    int
	)

	for {
		tokStart := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		off := int(dec.InputOffset())

		switch tk := tok.(type) {
		case xml.StartElement:
			switch tk.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					t.nsPrefix = tk.Name.Space
					t.openTag = data[tokStart:off]
				}
			case "tr":
				if tblDepth == 1 && row == nil {
					row = &tableRow{}
					rowStart = tokStart
					if lastRowEnd >= 0 {
						row.lead = data[lastRowEnd:tokStart]
					}
					row.openTag = data[tokStart:off]
				}
			case "tc":
				if tblDepth == 1 && row != nil && cell == nil {
					cell = &tableCell{gridSpan: 1}
					cellStart = tokStart
				}
			case "trPr":
				if tblDepth == 1 && row != nil && cell == nil && row.trPr == nil {
					trPrStart = tokStart
				}
			case "tcPr":
				if tblDepth == 1 && cell != nil && cell.tcPr == nil {
					tcPrStart = tokStart
				}
			case "gridSpan":
				if tblDepth == 1 && cell != nil {
					for _, attr := range tk.Attr {
						if attr.Name.Local == "val" {
							if span, err := strconv.Atoi(attr.Value); err == nil && span > 0 {
								cell.gridSpan = span
							}
						}
					}
				}
			case "gridCol":
				if tblDepth == 1 && row == nil {
					t.colCount++
				}
			case "p":
				if tblDepth == 1 && cell != nil {
					cell.paraTexts = append(cell.paraTexts, "")
					runIndex = 0
				}
			case "pPr":
				if tblDepth == 1 && cell != nil && len(cell.paraTexts) == 1 && cell.pPr == nil {
					pPrStart = tokStart
				}
			case "r":
				if tblDepth == 1 && cell != nil {
					runIndex++
				}
			case "rPr":
				if tblDepth == 1 && cell != nil && len(cell.paraTexts) == 1 && runIndex == 1 && cell.rPr == nil {
					rPrStart = tokStart
				}
			case "t":
				if tblDepth == 1 && cell != nil && len(cell.paraTexts) > 0 {
					inText = true
				}
			case "tab":
				if tblDepth == 1 && cell != nil && len(cell.paraTexts) > 0 {
					cell.paraTexts[len(cell.paraTexts)-1] += "\t"
				}
			case "br":
				if tblDepth == 1 && cell != nil && len(cell.paraTexts) > 0 {
					cell.paraTexts[len(cell.paraTexts)-1] += "\n"
				}
			}

		case xml.CharData:
			if inText && cell != nil && len(cell.paraTexts) > 0 {
				cell.paraTexts[len(cell.paraTexts)-1] += string(tk)
			}

		case xml.EndElement:
			switch tk.Name.Local {
			case "t":
				inText = false
			case "trPr":
				if trPrStart >= 0 && row != nil {
					row.trPr = data[trPrStart:off]
					trPrStart = -1
				}
			case "tcPr":
				if tcPrStart >= 0 && cell != nil {
					cell.tcPr = data[tcPrStart:off]
					tcPrStart = -1
				}
			case "pPr":
				if pPrStart >= 0 && cell != nil {
					cell.pPr = data[pPrStart:off]
					pPrStart = -1
				}
			case "rPr":
				if rPrStart >= 0 && cell != nil {
					cell.rPr = data[rPrStart:off]
					rPrStart = -1
				}
			case "tc":
				if tblDepth == 1 && cell != nil {
					cell.raw = data[cellStart:off]
					cell.finish(resolver)
					row.cells = append(row.cells, cell)
					cell = nil
				}
			case "tr":
				if tblDepth == 1 && row != nil && cell == nil {
					row.raw = data[rowStart:off]
					t.rows = append(t.rows, row)
					row = nil
					if firstRowStart < 0 {
						firstRowStart = rowStart
					}
					lastRowEnd = off
				}
			case "tbl":
				tblDepth--
				if tblDepth == 0 {
					closeStart = tokStart
				}
			}
		}
	}

	if closeStart > 0 {
		t.closeTag = data[closeStart:]
	}
	switch {
	case firstRowStart >= 0:
		t.prefix = data[len(t.openTag):firstRowStart]
		t.suffix = data[lastRowEnd:closeStart]
	case closeStart > 0:
		t.prefix = data[len(t.openTag):closeStart]
	}

	// Column count falls back to the widest row when the grid is absent.
	for _, r := range t.rows {
		width := 0
		for _, c := range r.cells {
			width += c.gridSpan
		}
		if width > t.colCount {
			t.colCount = width
		}
	}

	t.origRows = append([]*tableRow(nil), t.rows...)
	return t, nil
}

// finish resolves the cell's text and captured formatting once its
// parts have been collected.
func (c *tableCell) finish(resolver *StyleResolver) {
	var parts []string
	for _, p := range c.paraTexts {
		if p != "" {
			parts = append(parts, p)
		}
	}
	c.text = strings.Join(parts, "\n")
	c.paraTexts = nil

	var ppr paragraphPropsXML
	if c.pPr != nil {
		xml.Unmarshal(c.pPr, &ppr)
	}
	var rpr runPropsXML
	if c.rPr != nil {
		xml.Unmarshal(c.rPr, &rpr)
	}

	resolved := resolver.ResolveRun(ppr.Style.Val, rpr)
	align := alignmentFromJC(ppr.Justification.Val)
	if align == transcript.AlignDefault && ppr.Style.Val != "" {
		align = alignmentFromJC(resolver.Resolve(ppr.Style.Val).Alignment)
	}

	c.format = transcript.CellFormat{
		FontName:  resolved.FontName,
		FontSize:  resolved.FontSize,
		Bold:      resolved.Bold,
		Italic:    resolved.Italic,
		Alignment: align,
	}
	c.origFormat = c.format
}

// alignmentFromJC maps a w:jc value to an Alignment.
func alignmentFromJC(val string) transcript.Alignment {
	switch val {
	case "left", "start":
		return transcript.AlignLeft
	case "center":
		return transcript.AlignCenter
	case "right", "end":
		return transcript.AlignRight
	default:
		return transcript.AlignDefault
	}
}

// jcFromAlignment maps an Alignment to a w:jc value.
func jcFromAlignment(a transcript.Alignment) string {
	switch a {
	case transcript.AlignLeft:
		return "left"
	case transcript.AlignCenter:
		return "center"
	case transcript.AlignRight:
		return "right"
	default:
		return ""
	}
}

// ============================================================================
// transcript.Table implementation
// ============================================================================

// RowCount returns the current number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// CellCount returns the number of cells in the given row. A spanning
// semester row counts as one cell.
func (t *Table) CellCount(row int) int {
	if row < 0 || row >= len(t.rows) {
		return 0
	}
	return len(t.rows[row].cells)
}

// ColumnCount returns the width of the table in grid columns.
func (t *Table) ColumnCount() int {
	return t.colCount
}

// CellText returns the text of a cell, empty for out-of-range indices.
func (t *Table) CellText(row, col int) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	cells := t.rows[row].cells
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col].text
}

// SetCellText replaces the text of a cell. The cell keeps its captured
// formatting; the replacement is written as a single run.
func (t *Table) SetCellText(row, col int, text string) error {
	c, err := t.cell(row, col)
	if err != nil {
		return err
	}
	c.text = text
	c.dirty = true
	return nil
}

// CellFormat returns the captured formatting of a cell.
func (t *Table) CellFormat(row, col int) (transcript.CellFormat, error) {
	c, err := t.cell(row, col)
	if err != nil {
		return transcript.CellFormat{}, err
	}
	return c.format, nil
}

// SetCellFormat replaces the formatting applied when the cell is written.
func (t *Table) SetCellFormat(row, col int, format transcript.CellFormat) error {
	c, err := t.cell(row, col)
	if err != nil {
		return err
	}
	c.format = format
	c.dirty = true
	return nil
}

func (t *Table) cell(row, col int) (*tableCell, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, fmt.Errorf("row index %d out of bounds (0-%d)", row, len(t.rows)-1)
	}
	cells := t.rows[row].cells
	if col < 0 || col >= len(cells) {
		return nil, fmt.Errorf("cell index %d out of bounds (0-%d)", col, len(cells)-1)
	}
	return cells[col], nil
}

// AppendRow appends a synthetic row with the given number of cells.
// Cell properties are inherited column-wise from the first data row so
// widths and borders match the rest of the table.
func (t *Table) AppendRow(cells int) (int, error) {
	if cells < 1 {
		return 0, fmt.Errorf("row must have at least one cell, got %d", cells)
	}

	template := t.templateRow()
	row := &tableRow{synthetic: true}
	if template != nil {
		row.trPr = template.trPr
	}
	for i := 0; i < cells; i++ {
		c := &tableCell{gridSpan: 1, dirty: true}
		if template != nil && i < len(template.cells) {
			c.tcPr = template.cells[i].tcPr
		}
		row.cells = append(row.cells, c)
	}

	t.rows = append(t.rows, row)
	return len(t.rows) - 1, nil
}

// AppendMarkerRow appends a row holding a single cell spanning the full
// table width, used for semester group headers.
func (t *Table) AppendMarkerRow(text string, format transcript.CellFormat) (int, error) {
	span := t.colCount
	if span < 1 {
		span = 1
	}

	row := &tableRow{synthetic: true}
	row.cells = append(row.cells, &tableCell{
		text:     text,
		format:   format,
		gridSpan: span,
		dirty:    true,
	})

	t.rows = append(t.rows, row)
	return len(t.rows) - 1, nil
}

// AppendRowFrom appends a clone of a load-time row with replacement
// texts. The clone reuses the source row's raw property bytes, so cell
// widths, shading and run styling carry over exactly. Cells beyond the
// replacement texts are emptied.
func (t *Table) AppendRowFrom(source int, texts []string) (int, error) {
	if source < 0 || source >= len(t.origRows) {
		return 0, fmt.Errorf("source row index %d out of bounds (0-%d)", source, len(t.origRows)-1)
	}

	src := t.origRows[source]
	row := &tableRow{
		synthetic: true,
		openTag:   src.openTag,
		trPr:      src.trPr,
	}
	for i, sc := range src.cells {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		row.cells = append(row.cells, &tableCell{
			tcPr:       sc.tcPr,
			pPr:        sc.pPr,
			rPr:        sc.rPr,
			text:       text,
			format:     sc.origFormat,
			origFormat: sc.origFormat,
			gridSpan:   sc.gridSpan,
			dirty:      true,
		})
	}

	t.rows = append(t.rows, row)
	return len(t.rows) - 1, nil
}

// RemoveRow removes the row at the given index.
func (t *Table) RemoveRow(row int) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row index %d out of bounds (0-%d)", row, len(t.rows)-1)
	}
	t.rows = append(t.rows[:row], t.rows[row+1:]...)
	return nil
}

// templateRow returns the first load-time row after the header, falling
// back to the header row itself.
func (t *Table) templateRow() *tableRow {
	if len(t.origRows) > 1 {
		return t.origRows[1]
	}
	if len(t.origRows) == 1 {
		return t.origRows[0]
	}
	return nil
}

// ToModelTable converts the table's current state to a model.Table.
func (t *Table) ToModelTable() *model.Table {
	out := &model.Table{Name: fmt.Sprintf("Table %d", t.Index+1)}
	for _, row := range t.rows {
		cells := make([]model.Cell, 0, len(row.cells))
		for _, c := range row.cells {
			cells = append(cells, model.Cell{
				Text:   c.text,
				Format: c.format,
				Span:   c.gridSpan,
			})
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// ============================================================================
// Serialization
// ============================================================================

// tag returns the element name with the table's namespace prefix.
func (t *Table) tag(local string) string {
	if t.nsPrefix == "" {
		return local
	}
	return t.nsPrefix + ":" + local
}

// appendBytes writes the table's current state as WordprocessingML.
func (t *Table) appendBytes(buf *bytes.Buffer) {
	open := t.openTag
	if bytes.HasSuffix(open, []byte("/>")) {
		// Self-closing table gained rows; reopen it.
		open = append(append([]byte(nil), open[:len(open)-2]...), '>')
	}
	buf.Write(open)
	buf.Write(t.prefix)

	for _, row := range t.rows {
		t.appendRowBytes(buf, row)
	}

	buf.Write(t.suffix)
	if len(t.closeTag) > 0 {
		buf.Write(t.closeTag)
	} else {
		buf.WriteString("</" + t.tag("tbl") + ">")
	}
}

func (t *Table) appendRowBytes(buf *bytes.Buffer, row *tableRow) {
	buf.Write(row.lead)
	if !row.synthetic && !row.dirty() {
		buf.Write(row.raw)
		return
	}

	if row.openTag != nil {
		buf.Write(row.openTag)
	} else {
		buf.WriteString("<" + t.tag("tr") + ">")
	}
	buf.Write(row.trPr)
	for _, c := range row.cells {
		t.appendCellBytes(buf, c)
	}
	buf.WriteString("</" + t.tag("tr") + ">")
}

func (t *Table) appendCellBytes(buf *bytes.Buffer, c *tableCell) {
	if !c.dirty && c.raw != nil {
		buf.Write(c.raw)
		return
	}

	buf.WriteString("<" + t.tag("tc") + ">")
	switch {
	case c.tcPr != nil:
		buf.Write(c.tcPr)
	case c.gridSpan > 1:
		buf.WriteString("<" + t.tag("tcPr") + "><" + t.tag("gridSpan") +
			` w:val="` + strconv.Itoa(c.gridSpan) + `"/></` + t.tag("tcPr") + ">")
	}

	buf.WriteString("<" + t.tag("p") + ">")
	if c.pPr != nil && c.format.Alignment == c.origFormat.Alignment {
		buf.Write(c.pPr)
	} else {
		writePPr(buf, t.nsPrefix, c.format.Alignment)
	}

	buf.WriteString("<" + t.tag("r") + ">")
	if c.rPr != nil && sameRunFormat(c.format, c.origFormat) {
		buf.Write(c.rPr)
	} else {
		writeRPr(buf, t.nsPrefix, c.format)
	}
	writeCellText(buf, t.nsPrefix, c.text)
	buf.WriteString("</" + t.tag("r") + ">")

	buf.WriteString("</" + t.tag("p") + ">")
	buf.WriteString("</" + t.tag("tc") + ">")
}

// sameRunFormat reports whether the run-level parts of two formats match.
func sameRunFormat(a, b transcript.CellFormat) bool {
	return a.FontName == b.FontName &&
		a.FontSize == b.FontSize &&
		a.Bold == b.Bold &&
		a.Italic == b.Italic
}
