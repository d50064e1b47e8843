// Package htmldoc reads tables out of HTML documents.
//
// HTML is an input format only: tables are converted to model tables
// for cleaning and re-rendered through the DOCX or XLSX builders, so
// the reader keeps no write-back state.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

var spaceRun = regexp.MustCompile(`\s+`)

// Reader provides access to the tables of one HTML document.
type Reader struct {
	doc    *goquery.Document
	title  string
	tables []*model.Table
}

// Open opens an HTML file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f)
}

// OpenReader parses HTML from an io.Reader.
func OpenReader(r io.Reader) (*Reader, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{doc: goquery.NewDocumentFromNode(root)}
	reader.title = collapseSpaces(reader.doc.Find("head title").First().Text())
	reader.parseTables()

	return reader, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	return nil
}

// Title returns the document's head title, or "".
func (r *Reader) Title() string {
	return r.title
}

// Tables returns the top-level tables of the document, in order.
// Tables nested inside cells are not returned; their content is also
// excluded from the enclosing cell's text.
func (r *Reader) Tables() []*model.Table {
	return r.tables
}

// ModelTables returns the document's tables. It exists so all document
// backends expose the same conversion entry point.
func (r *Reader) ModelTables() []*model.Table {
	return r.tables
}

// parseTables walks every non-nested table element.
func (r *Reader) parseTables() {
	r.doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if tbl.ParentsFiltered("table").Length() > 0 {
			return
		}

		t := &model.Table{Name: collapseSpaces(tbl.Find("caption").First().Text())}
		if t.Name == "" {
			t.Name = fmt.Sprintf("Table %d", len(r.tables)+1)
		}

		tblNode := tbl.Get(0)
		tbl.Find("tr").Each(func(_ int, row *goquery.Selection) {
			// Rows of nested tables belong to their own table.
			if row.Closest("table").Get(0) != tblNode {
				return
			}
			cells := parseRow(row)
			if len(cells) > 0 {
				t.Rows = append(t.Rows, cells)
			}
		})

		if len(t.Rows) > 0 {
			r.tables = append(r.tables, t)
		}
	})
}

// parseRow converts one tr element into model cells.
func parseRow(row *goquery.Selection) []model.Cell {
	inHead := row.ParentsFiltered("thead").Length() > 0

	var cells []model.Cell
	row.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
		// Nested tables are stripped before reading the cell text, so a
		// wrapping cell contributes only its own content.
		pruned := cell.Clone()
		pruned.Find("table").Remove()

		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			fmt.Sscanf(v, "%d", &span)
		}
		if span < 1 {
			span = 1
		}

		cells = append(cells, model.Cell{
			Text:   collapseSpaces(pruned.Text()),
			Format: cellFormat(cell, pruned, inHead),
			Span:   span,
		})
	})
	return cells
}

// cellFormat derives a cell format from markup hints: th and thead
// cells read as bold, inline b/strong/i/em set the font flags, and the
// legacy align attribute or a style text-align declaration sets the
// alignment.
func cellFormat(cell, pruned *goquery.Selection, inHead bool) transcript.CellFormat {
	f := transcript.CellFormat{Alignment: cellAlignment(cell)}
	if inHead || goquery.NodeName(cell) == "th" || pruned.Find("b,strong").Length() > 0 {
		f.Bold = true
	}
	if pruned.Find("i,em").Length() > 0 {
		f.Italic = true
	}
	return f
}

func cellAlignment(cell *goquery.Selection) transcript.Alignment {
	if v, ok := cell.Attr("align"); ok {
		if a := alignmentFromName(v); a != transcript.AlignDefault {
			return a
		}
	}
	if style, ok := cell.Attr("style"); ok {
		for _, decl := range strings.Split(style, ";") {
			name, value, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(name), "text-align") {
				return alignmentFromName(value)
			}
		}
	}
	return transcript.AlignDefault
}

func alignmentFromName(name string) transcript.Alignment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return transcript.AlignLeft
	case "center":
		return transcript.AlignCenter
	case "right":
		return transcript.AlignRight
	default:
		return transcript.AlignDefault
	}
}

// collapseSpaces trims the text and folds whitespace runs to single
// spaces.
func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
