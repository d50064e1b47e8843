package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Sheet is one worksheet, parsed into a logical grid. It implements
// transcript.Table along with the marker and row-cloning extensions.
type Sheet struct {
	Name  string
	Index int

	rows     []*sheetRow
	origRows []*sheetRow // load-time snapshot for row cloning
	colCount int

	// writtenRows is the number of physical rows the sheet holds in the
	// underlying file; rows beyond len(rows) are deleted on apply.
	writtenRows int
	// merges are the horizontal merge ranges currently present in the
	// underlying file. They are dissolved and rebuilt on apply.
	merges  []mergeSpan
	mutated bool
}

// sheetRow is one logical row.
type sheetRow struct {
	cells []*sheetCell
}

// sheetCell is one logical cell. A horizontally merged range collapses
// into a single cell spanning its columns.
type sheetCell struct {
	text       string
	format     transcript.CellFormat
	origFormat transcript.CellFormat
	styleID    int // style index in the source workbook; -1 for synthesized cells
	span       int // grid columns covered; always >= 1
}

// mergeSpan is a horizontal merge range: its 1-based anchor coordinates
// and the number of columns it covers.
type mergeSpan struct {
	row, col, span int
}

// gridRef addresses one physical cell with 1-based coordinates.
type gridRef struct {
	row, col int
}

// ============================================================================
// PARSING
// ============================================================================

// parseSheet reads one worksheet into a logical grid. Rows are padded
// to the sheet's column count so every row exposes the same columns;
// horizontal single-row merges become spanning cells. Vertical and
// block merges are left alone and travel with the file.
func parseSheet(w *Workbook, name string, index int) (*Sheet, error) {
	raw, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	ranges, err := w.file.GetMergeCells(name)
	if err != nil {
		return nil, fmt.Errorf("reading merge ranges: %w", err)
	}

	rowCount := len(raw)
	anchors := make(map[gridRef]int)
	var merges []mergeSpan
	for _, m := range ranges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("parsing merge range start %q: %w", m.GetStartAxis(), err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("parsing merge range end %q: %w", m.GetEndAxis(), err)
		}
		if startRow != endRow || endCol <= startCol {
			continue
		}
		merges = append(merges, mergeSpan{row: startRow, col: startCol, span: endCol - startCol + 1})
		anchors[gridRef{startRow, startCol}] = endCol - startCol + 1
		if startRow > rowCount {
			rowCount = startRow
		}
	}

	colCount := 0
	for _, r := range raw {
		if len(r) > colCount {
			colCount = len(r)
		}
	}
	for _, m := range merges {
		if end := m.col + m.span - 1; end > colCount {
			colCount = end
		}
	}

	s := &Sheet{
		Name:        name,
		Index:       index,
		colCount:    colCount,
		writtenRows: rowCount,
		merges:      merges,
	}

	for r := 1; r <= rowCount; r++ {
		var texts []string
		if r-1 < len(raw) {
			texts = raw[r-1]
		}
		row := &sheetRow{}
		for col := 1; col <= colCount; {
			span := 1
			if sp, ok := anchors[gridRef{r, col}]; ok {
				span = sp
			}
			c := &sheetCell{span: span}
			if col-1 < len(texts) {
				c.text = texts[col-1]
			}
			c.styleID, err = w.file.GetCellStyle(name, cellName(col, r))
			if err != nil {
				return nil, fmt.Errorf("reading style of cell %s: %w", cellName(col, r), err)
			}
			c.format, err = w.formatFor(c.styleID)
			if err != nil {
				return nil, err
			}
			c.origFormat = c.format
			row.cells = append(row.cells, c)
			col += span
		}
		s.rows = append(s.rows, row)
	}

	s.origRows = append([]*sheetRow(nil), s.rows...)
	return s, nil
}

// ============================================================================
// TABLE INTERFACE
// ============================================================================

// RowCount returns the number of rows currently in the sheet.
func (s *Sheet) RowCount() int {
	return len(s.rows)
}

// CellCount returns the number of logical cells in a row, or 0 when the
// index is out of range.
func (s *Sheet) CellCount(row int) int {
	if row < 0 || row >= len(s.rows) {
		return 0
	}
	return len(s.rows[row].cells)
}

// CellText returns the text of a cell, or "" when out of range.
func (s *Sheet) CellText(row, col int) string {
	if row < 0 || row >= len(s.rows) {
		return ""
	}
	cells := s.rows[row].cells
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col].text
}

// SetCellText replaces the text content of a cell.
func (s *Sheet) SetCellText(row, col int, text string) error {
	c, err := s.cell(row, col)
	if err != nil {
		return err
	}
	c.text = text
	s.mutated = true
	return nil
}

// CellFormat reports the formatting of a cell.
func (s *Sheet) CellFormat(row, col int) (transcript.CellFormat, error) {
	c, err := s.cell(row, col)
	if err != nil {
		return transcript.CellFormat{}, err
	}
	return c.format, nil
}

// SetCellFormat applies formatting to a cell.
func (s *Sheet) SetCellFormat(row, col int, format transcript.CellFormat) error {
	c, err := s.cell(row, col)
	if err != nil {
		return err
	}
	c.format = format
	s.mutated = true
	return nil
}

// AppendRow adds a row with the given number of single-column cells.
// Cells inherit the style of the template row column-wise, so appended
// rows keep the table's borders and fills.
func (s *Sheet) AppendRow(cells int) (int, error) {
	if cells < 1 {
		return 0, fmt.Errorf("row must have at least one cell, got %d", cells)
	}

	template := s.templateRow()
	row := &sheetRow{}
	for i := 0; i < cells; i++ {
		c := &sheetCell{span: 1, styleID: -1}
		if template != nil && i < len(template.cells) {
			c.styleID = template.cells[i].styleID
			c.format = template.cells[i].origFormat
			c.origFormat = template.cells[i].origFormat
		}
		row.cells = append(row.cells, c)
	}

	s.rows = append(s.rows, row)
	s.mutated = true
	return len(s.rows) - 1, nil
}

// AppendMarkerRow adds a single-cell row spanning the sheet width.
func (s *Sheet) AppendMarkerRow(text string, format transcript.CellFormat) (int, error) {
	span := s.colCount
	if span < 1 {
		span = 1
	}

	row := &sheetRow{}
	row.cells = append(row.cells, &sheetCell{
		text:    text,
		format:  format,
		styleID: -1,
		span:    span,
	})

	s.rows = append(s.rows, row)
	s.mutated = true
	return len(s.rows) - 1, nil
}

// AppendRowFrom appends a copy of a load-time row with new cell texts.
// Source cells keep their style index, so markup the cell format model
// does not capture survives the copy.
func (s *Sheet) AppendRowFrom(source int, texts []string) (int, error) {
	if source < 0 || source >= len(s.origRows) {
		return 0, fmt.Errorf("source row index %d out of bounds (0-%d)", source, len(s.origRows)-1)
	}

	src := s.origRows[source]
	row := &sheetRow{}
	for i, sc := range src.cells {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		row.cells = append(row.cells, &sheetCell{
			text:       text,
			format:     sc.origFormat,
			origFormat: sc.origFormat,
			styleID:    sc.styleID,
			span:       sc.span,
		})
	}

	s.rows = append(s.rows, row)
	s.mutated = true
	return len(s.rows) - 1, nil
}

// RemoveRow deletes the row at the given index.
func (s *Sheet) RemoveRow(row int) error {
	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("row index %d out of bounds (0-%d)", row, len(s.rows)-1)
	}
	s.rows = append(s.rows[:row], s.rows[row+1:]...)
	s.mutated = true
	return nil
}

// cell returns the cell at the given position or an error when out of
// bounds.
func (s *Sheet) cell(row, col int) (*sheetCell, error) {
	if row < 0 || row >= len(s.rows) {
		return nil, fmt.Errorf("row index %d out of bounds (0-%d)", row, len(s.rows)-1)
	}
	cells := s.rows[row].cells
	if col < 0 || col >= len(cells) {
		return nil, fmt.Errorf("cell index %d out of bounds (0-%d)", col, len(cells)-1)
	}
	return cells[col], nil
}

// templateRow returns the first load-time row after the header, falling
// back to the header itself.
func (s *Sheet) templateRow() *sheetRow {
	if len(s.origRows) > 1 {
		return s.origRows[1]
	}
	if len(s.origRows) == 1 {
		return s.origRows[0]
	}
	return nil
}

// ToModelTable converts the sheet to a format-independent model table.
func (s *Sheet) ToModelTable() *model.Table {
	out := &model.Table{Name: s.Name}
	for _, row := range s.rows {
		cells := make([]model.Cell, 0, len(row.cells))
		for _, c := range row.cells {
			cells = append(cells, model.Cell{
				Text:   c.text,
				Format: c.format,
				Span:   c.span,
			})
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}
