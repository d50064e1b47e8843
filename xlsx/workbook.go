// Package xlsx reads and rewrites XLSX workbooks through excelize.
//
// Each sheet is parsed into a logical grid the cleaning engine can work
// on: horizontally merged cells collapse into single spanning cells, and
// short rows are padded to the sheet width so column positions line up.
// Mutations are held in memory and written back only for sheets that
// actually changed; untouched sheets keep their loaded content.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Workbook provides access to XLSX content.
type Workbook struct {
	file   *excelize.File
	sheets []*Sheet

	// formatCache maps source style indexes to extracted cell formats.
	formatCache map[int]transcript.CellFormat
	// styleCache maps synthesized cell formats to created style indexes.
	styleCache map[transcript.CellFormat]int
}

// Open opens an XLSX file.
func Open(filename string) (*Workbook, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	return newWorkbook(f)
}

// OpenReader opens an XLSX workbook from an io.Reader.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	return newWorkbook(f)
}

func newWorkbook(f *excelize.File) (*Workbook, error) {
	w := &Workbook{
		file:        f,
		formatCache: make(map[int]transcript.CellFormat),
		styleCache:  make(map[transcript.CellFormat]int),
	}
	for i, name := range f.GetSheetList() {
		s, err := parseSheet(w, name, i)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("parsing sheet %q: %w", name, err)
		}
		w.sheets = append(w.sheets, s)
	}
	return w, nil
}

// Sheets returns the workbook's sheets in workbook order.
func (w *Workbook) Sheets() []*Sheet {
	return w.sheets
}

// ModelTables converts all sheets to format-independent model tables.
func (w *Workbook) ModelTables() []*model.Table {
	tables := make([]*model.Table, 0, len(w.sheets))
	for _, s := range w.sheets {
		tables = append(tables, s.ToModelTable())
	}
	return tables
}

// Close releases the resources held by the underlying workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// ============================================================================
// SERIALIZATION
// ============================================================================

// Bytes applies all pending sheet mutations and returns the serialized
// workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	if err := w.apply(); err != nil {
		return nil, err
	}
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Save applies all pending sheet mutations and writes the workbook to
// the given path.
func (w *Workbook) Save(filename string) error {
	if err := w.apply(); err != nil {
		return err
	}
	if err := w.file.SaveAs(filename); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Write applies all pending sheet mutations and writes the workbook to out.
func (w *Workbook) Write(out io.Writer) error {
	if err := w.apply(); err != nil {
		return err
	}
	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// apply pushes mutated sheets back into the underlying file. Sheets
// that were never written to are skipped.
func (w *Workbook) apply() error {
	for _, s := range w.sheets {
		if !s.mutated {
			continue
		}
		if err := w.applySheet(s); err != nil {
			return err
		}
	}
	return nil
}

// applySheet rewrites one sheet's cell region from its logical grid:
// loaded merges are dissolved, every logical cell is written with its
// text and style, rows the grid no longer holds are deleted bottom-up,
// and spanning cells are re-merged.
func (w *Workbook) applySheet(s *Sheet) error {
	for _, m := range s.merges {
		start := cellName(m.col, m.row)
		end := cellName(m.col+m.span-1, m.row)
		if err := w.file.UnmergeCell(s.Name, start, end); err != nil {
			return fmt.Errorf("unmerging %s:%s in sheet %q: %w", start, end, s.Name, err)
		}
	}

	var merges []mergeSpan
	for r, row := range s.rows {
		col := 1
		for _, c := range row.cells {
			name := cellName(col, r+1)
			if err := w.file.SetCellStr(s.Name, name, c.text); err != nil {
				return fmt.Errorf("writing cell %s in sheet %q: %w", name, s.Name, err)
			}

			id := c.styleID
			if id < 0 || c.format != c.origFormat {
				var err error
				id, err = w.styleFor(c.format)
				if err != nil {
					return err
				}
			}
			// Styles are written unconditionally: rows shift when earlier
			// rows are removed, so the target cell may carry a stale style.
			if err := w.file.SetCellStyle(s.Name, name, name, id); err != nil {
				return fmt.Errorf("styling cell %s in sheet %q: %w", name, s.Name, err)
			}

			span := c.span
			if span < 1 {
				span = 1
			}
			for i := 1; i < span; i++ {
				covered := cellName(col+i, r+1)
				if err := w.file.SetCellStr(s.Name, covered, ""); err != nil {
					return fmt.Errorf("writing cell %s in sheet %q: %w", covered, s.Name, err)
				}
				if err := w.file.SetCellStyle(s.Name, covered, covered, id); err != nil {
					return fmt.Errorf("styling cell %s in sheet %q: %w", covered, s.Name, err)
				}
			}
			if span > 1 {
				merges = append(merges, mergeSpan{row: r + 1, col: col, span: span})
			}
			col += span
		}

		// Clear columns a narrower replacement row no longer reaches.
		for ; col <= s.colCount; col++ {
			name := cellName(col, r+1)
			if err := w.file.SetCellStr(s.Name, name, ""); err != nil {
				return fmt.Errorf("writing cell %s in sheet %q: %w", name, s.Name, err)
			}
			if err := w.file.SetCellStyle(s.Name, name, name, 0); err != nil {
				return fmt.Errorf("styling cell %s in sheet %q: %w", name, s.Name, err)
			}
		}
	}

	for r := s.writtenRows; r > len(s.rows); r-- {
		if err := w.file.RemoveRow(s.Name, r); err != nil {
			return fmt.Errorf("removing row %d from sheet %q: %w", r, s.Name, err)
		}
	}

	for _, m := range merges {
		start := cellName(m.col, m.row)
		end := cellName(m.col+m.span-1, m.row)
		if err := w.file.MergeCell(s.Name, start, end); err != nil {
			return fmt.Errorf("merging %s:%s in sheet %q: %w", start, end, s.Name, err)
		}
	}

	s.writtenRows = len(s.rows)
	s.merges = merges
	return nil
}

// ============================================================================
// STYLE TRANSLATION
// ============================================================================

// formatFor extracts the cell format carried by a source style index.
// Index 0 is the workbook default and maps to the zero format.
func (w *Workbook) formatFor(styleID int) (transcript.CellFormat, error) {
	if styleID <= 0 {
		return transcript.CellFormat{}, nil
	}
	if f, ok := w.formatCache[styleID]; ok {
		return f, nil
	}
	style, err := w.file.GetStyle(styleID)
	if err != nil {
		return transcript.CellFormat{}, fmt.Errorf("reading style %d: %w", styleID, err)
	}
	f := formatFromStyle(style)
	w.formatCache[styleID] = f
	return f, nil
}

// styleFor returns a style index rendering the given format, creating
// it on first use. The zero format maps to the default style.
func (w *Workbook) styleFor(format transcript.CellFormat) (int, error) {
	if format.IsZero() {
		return 0, nil
	}
	if id, ok := w.styleCache[format]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(styleFromFormat(format))
	if err != nil {
		return 0, fmt.Errorf("creating style: %w", err)
	}
	w.styleCache[format] = id
	return id, nil
}

// formatFromStyle extracts the attributes the cell format model carries.
func formatFromStyle(style *excelize.Style) transcript.CellFormat {
	var f transcript.CellFormat
	if style == nil {
		return f
	}
	if font := style.Font; font != nil {
		f.FontName = font.Family
		f.FontSize = font.Size
		f.Bold = font.Bold
		f.Italic = font.Italic
	}
	if al := style.Alignment; al != nil {
		f.Alignment = alignmentFromHorizontal(al.Horizontal)
	}
	return f
}

// styleFromFormat converts a cell format to an excelize style definition.
func styleFromFormat(format transcript.CellFormat) *excelize.Style {
	style := &excelize.Style{}
	if format.FontName != "" || format.FontSize > 0 || format.Bold || format.Italic {
		style.Font = &excelize.Font{
			Bold:   format.Bold,
			Italic: format.Italic,
			Family: format.FontName,
			Size:   format.FontSize,
		}
	}
	if h := horizontalFromAlignment(format.Alignment); h != "" {
		style.Alignment = &excelize.Alignment{Horizontal: h}
	}
	return style
}

func alignmentFromHorizontal(h string) transcript.Alignment {
	switch h {
	case "left":
		return transcript.AlignLeft
	case "center", "centerContinuous":
		return transcript.AlignCenter
	case "right":
		return transcript.AlignRight
	default:
		return transcript.AlignDefault
	}
}

func horizontalFromAlignment(a transcript.Alignment) string {
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

// cellName converts 1-based coordinates to an A1-style reference.
// Callers always pass coordinates >= 1.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
