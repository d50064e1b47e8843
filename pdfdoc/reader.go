// Package pdfdoc reads tables out of text-based PDF transcripts.
//
// Extraction is best-effort by nature: PDF has no table structure, so
// each page's text is grouped into rows by position and each row's
// fragments are clustered into cells by their horizontal gaps. Pages
// become model tables for cleaning; the cleaned result is rendered
// through the DOCX builder, never written back into the PDF.
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Gap thresholds in em units (relative to the fragment's font size).
// Gaps wider than cellGapEm start a new cell; narrower gaps wider than
// wordGapEm become a single space.
const (
	cellGapEm = 1.0
	wordGapEm = 0.2
)

// trailingFields splits a fully merged row into title, numeric grade,
// and a short score token. Used when gap clustering yields one cell.
var trailingFields = regexp.MustCompile(`^(.+?)\s+(\d+(?:[.,]\d+)?)\s+(\S{1,5})$`)

// Document provides access to the tables extracted from a PDF.
type Document struct {
	tables []*model.Table
}

// Open opens a PDF file.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader opens a PDF document from an io.ReaderAt.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	pr, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	d := &Document{}
	for i := 1; i <= pr.NumPage(); i++ {
		p := pr.Page(i)
		if p.V.IsNull() {
			continue
		}
		t := parsePage(p, i)
		if t != nil && len(t.Rows) > 0 {
			d.tables = append(d.tables, t)
		}
	}

	return d, nil
}

// Tables returns one table per page that yielded any rows.
func (d *Document) Tables() []*model.Table {
	return d.tables
}

// ModelTables returns the document's tables. It exists so all document
// backends expose the same conversion entry point.
func (d *Document) ModelTables() []*model.Table {
	return d.tables
}

// parsePage converts one page's positioned text into a table. Pages
// whose text cannot be read are skipped.
func parsePage(p pdf.Page, pageNum int) *model.Table {
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil
	}

	t := &model.Table{Name: fmt.Sprintf("Page %d", pageNum)}
	for _, row := range rows {
		cells := clusterCells(row.Content)
		if len(cells) == 1 {
			cells = splitTrailingFields(cells[0])
		}
		if len(cells) > 0 {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

// clusterCells groups a row's text fragments into cells. Fragments are
// ordered by X; a gap wider than a line-relative threshold closes the
// current cell.
func clusterCells(frags []pdf.Text) []model.Cell {
	var cells []model.Cell
	var cur strings.Builder
	var format transcript.CellFormat
	var end float64
	open := false

	flush := func() {
		if !open {
			return
		}
		if text := strings.TrimSpace(cur.String()); text != "" {
			cells = append(cells, model.Cell{Text: text, Format: format})
		}
		cur.Reset()
		open = false
	}

	for _, frag := range frags {
		if frag.S == "" {
			continue
		}
		em := frag.FontSize
		if em <= 0 {
			em = 10
		}
		gap := frag.X - end

		if open && gap > cellGapEm*em {
			flush()
		}
		if !open {
			format = fragmentFormat(frag)
			open = true
		} else if gap > wordGapEm*em {
			cur.WriteString(" ")
		}

		cur.WriteString(frag.S)
		if e := frag.X + frag.W; e > end {
			end = e
		}
	}
	flush()

	return cells
}

// splitTrailingFields breaks a merged "title grade score" line into
// three cells. Lines without a trailing numeric grade stay whole, which
// keeps semester banners as single cells.
func splitTrailingFields(cell model.Cell) []model.Cell {
	m := trailingFields.FindStringSubmatch(cell.Text)
	if m == nil {
		return []model.Cell{cell}
	}
	return []model.Cell{
		{Text: m[1], Format: cell.Format},
		{Text: m[2], Format: cell.Format},
		{Text: m[3], Format: cell.Format},
	}
}

// fragmentFormat derives a cell format from the fragment's font. Style
// is encoded in PDF font names ("Helvetica-Bold", "ABCDEF+Arial-ItalicMT").
func fragmentFormat(frag pdf.Text) transcript.CellFormat {
	f := transcript.CellFormat{FontSize: frag.FontSize}

	name := frag.Font
	if i := strings.Index(name, "+"); i >= 0 {
		name = name[i+1:]
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "bold") {
		f.Bold = true
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		f.Italic = true
	}
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[:i]
	}
	f.FontName = name

	return f
}
