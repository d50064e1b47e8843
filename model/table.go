// Package model provides the in-memory table representation shared by the
// document backends. HTML and PDF transcripts are converted into model
// tables before cleaning; the DOCX and XLSX writers consume them when
// synthesizing output documents.
package model

import (
	"fmt"
	"strings"

	"github.com/tsawler/registrar/transcript"
)

// Cell is one table cell: its text, formatting, and how many grid
// columns it spans (0 and 1 both mean a single column).
type Cell struct {
	Text   string
	Format transcript.CellFormat
	Span   int
}

// Table is a rectangular-ish grid of cells. Rows may differ in length
// when spanning cells are present. It implements transcript.Table, so
// the cleaning engine can run against it directly.
type Table struct {
	Rows [][]Cell
	// Name labels the table's origin: a sheet name, an HTML table
	// index, a page number. May be empty.
	Name string
}

// NewTable creates a table with the given dimensions, all cells empty.
func NewTable(rows, cols int) *Table {
	t := &Table{Rows: make([][]Cell, rows)}
	for i := range t.Rows {
		t.Rows[i] = make([]Cell, cols)
	}
	return t
}

// FromRows builds a table from plain cell texts.
func FromRows(rows [][]string) *Table {
	t := &Table{Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		t.Rows[i] = make([]Cell, len(row))
		for j, text := range row {
			t.Rows[i][j] = Cell{Text: text}
		}
	}
	return t
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns in the widest row, counting
// spans.
func (t *Table) ColCount() int {
	max := 0
	for _, row := range t.Rows {
		n := 0
		for _, c := range row {
			if c.Span > 1 {
				n += c.Span
			} else {
				n++
			}
		}
		if n > max {
			max = n
		}
	}
	return max
}

// CellCount returns the number of cells in a row.
func (t *Table) CellCount(row int) int {
	if row < 0 || row >= len(t.Rows) {
		return 0
	}
	return len(t.Rows[row])
}

// GetCell returns a pointer to the cell at the given position, or nil
// when out of range.
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// SetCell replaces the cell at the given position.
func (t *Table) SetCell(row, col int, cell Cell) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return fmt.Errorf("col index %d out of bounds", col)
	}
	t.Rows[row][col] = cell
	return nil
}

// CellText returns the text of a cell, or "" when out of range.
func (t *Table) CellText(row, col int) string {
	c := t.GetCell(row, col)
	if c == nil {
		return ""
	}
	return c.Text
}

// SetCellText replaces the text of a cell.
func (t *Table) SetCellText(row, col int, text string) error {
	c := t.GetCell(row, col)
	if c == nil {
		return fmt.Errorf("cell [%d][%d] out of bounds", row, col)
	}
	c.Text = text
	return nil
}

// CellFormat reports the formatting of a cell.
func (t *Table) CellFormat(row, col int) (transcript.CellFormat, error) {
	c := t.GetCell(row, col)
	if c == nil {
		return transcript.CellFormat{}, fmt.Errorf("cell [%d][%d] out of bounds", row, col)
	}
	return c.Format, nil
}

// SetCellFormat applies formatting to a cell.
func (t *Table) SetCellFormat(row, col int, format transcript.CellFormat) error {
	c := t.GetCell(row, col)
	if c == nil {
		return fmt.Errorf("cell [%d][%d] out of bounds", row, col)
	}
	c.Format = format
	return nil
}

// AppendRow adds a row of empty cells and returns its index.
func (t *Table) AppendRow(cells int) (int, error) {
	t.Rows = append(t.Rows, make([]Cell, cells))
	return len(t.Rows) - 1, nil
}

// AppendMarkerRow adds a single-cell row spanning the table width,
// used for semester group headers.
func (t *Table) AppendMarkerRow(text string, format transcript.CellFormat) (int, error) {
	span := t.ColCount()
	if span < 1 {
		span = 1
	}
	t.Rows = append(t.Rows, []Cell{{Text: text, Format: format, Span: span}})
	return len(t.Rows) - 1, nil
}

// RemoveRow deletes the row at the given index.
func (t *Table) RemoveRow(row int) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	t.Rows = append(t.Rows[:row], t.Rows[row+1:]...)
	return nil
}

// ToMarkdown renders the table as a markdown table, first row as header.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	for j, cell := range t.Rows[0] {
		sb.WriteString("| ")
		sb.WriteString(strings.ReplaceAll(cell.Text, "\n", " "))
		sb.WriteString(" ")
		if j == len(t.Rows[0])-1 {
			sb.WriteString("|")
		}
	}
	sb.WriteString("\n")

	for j := range t.Rows[0] {
		sb.WriteString("|---")
		if j == len(t.Rows[0])-1 {
			sb.WriteString("|")
		}
	}
	sb.WriteString("\n")

	for i := 1; i < len(t.Rows); i++ {
		for j, cell := range t.Rows[i] {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(cell.Text, "\n", " "))
			sb.WriteString(" ")
			if j == len(t.Rows[i])-1 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToCSV renders the table as comma-separated values.
func (t *Table) ToCSV() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			text := cell.Text
			if strings.Contains(text, ",") || strings.Contains(text, "\"") || strings.Contains(text, "\n") {
				text = "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
			}
			sb.WriteString(text)
			if j < len(row)-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
