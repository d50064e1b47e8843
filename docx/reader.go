// Package docx reads and rewrites DOCX (Office Open XML) documents.
//
// The package targets in-place table rewriting: every archive part is
// held in memory, tables are parsed with their raw byte spans intact,
// and a rewrite splices rebuilt tables back into word/document.xml so
// everything outside the touched tables survives byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/registrar/model"
)

// Document provides access to DOCX content.
type Document struct {
	entries  []zipEntry
	docEntry int // index of word/document.xml in entries
	tables   []*Table
	resolver *StyleResolver
}

// zipEntry is one archive part, fully buffered.
type zipEntry struct {
	name string
	data []byte
}

// Open opens a DOCX file.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader opens a DOCX document from an io.ReaderAt.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	d := &Document{docEntry: -1}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading archive entry %s: %w", f.Name, err)
		}
		if f.Name == "word/document.xml" {
			d.docEntry = len(d.entries)
		}
		d.entries = append(d.entries, zipEntry{name: f.Name, data: data})
	}

	if err := d.validate(); err != nil {
		return nil, err
	}

	if err := d.parseStyles(); err != nil {
		return nil, fmt.Errorf("parsing styles: %w", err)
	}

	if err := d.parseTables(); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}

	return d, nil
}

// validate checks that required DOCX files exist.
func (d *Document) validate() error {
	required := []string{
		"[Content_Types].xml",
		"word/document.xml",
	}

	fileMap := make(map[string]bool)
	for _, e := range d.entries {
		fileMap[e.name] = true
	}

	for _, name := range required {
		if !fileMap[name] {
			return fmt.Errorf("missing required file: %s", name)
		}
	}

	return nil
}

// getFileContent returns the content of an archive part by name.
func (d *Document) getFileContent(name string) ([]byte, bool) {
	for _, e := range d.entries {
		if e.name == name {
			return e.data, true
		}
	}
	return nil, false
}

// documentData returns the current word/document.xml bytes.
func (d *Document) documentData() []byte {
	return d.entries[d.docEntry].data
}

// parseStyles parses the styles definition file, if present.
func (d *Document) parseStyles() error {
	data, ok := d.getFileContent("word/styles.xml")
	if !ok {
		// Styles are optional - resolve against empty defaults
		d.resolver = NewStyleResolver(nil)
		return nil
	}

	styles := &stylesXML{}
	if err := xml.Unmarshal(data, styles); err != nil {
		return fmt.Errorf("unmarshaling styles.xml: %w", err)
	}
	d.resolver = NewStyleResolver(styles)
	return nil
}

// parseTables locates and parses every top-level table in the body.
func (d *Document) parseTables() error {
	spans, err := topLevelSpans(d.documentData(), "tbl")
	if err != nil {
		return fmt.Errorf("scanning document.xml: %w", err)
	}

	for i, span := range spans {
		t, err := parseTable(d.documentData()[span.start:span.end], d.resolver)
		if err != nil {
			return fmt.Errorf("parsing table %d: %w", i+1, err)
		}
		t.Index = i
		t.span = span
		d.tables = append(d.tables, t)
	}

	return nil
}

// Tables returns the top-level tables of the document body, in order.
// Tables nested inside cells are not returned; they travel with their
// enclosing row's raw bytes.
func (d *Document) Tables() []*Table {
	return d.tables
}

// ModelTables converts all tables to format-independent model tables.
func (d *Document) ModelTables() []*model.Table {
	tables := make([]*model.Table, 0, len(d.tables))
	for _, t := range d.tables {
		tables = append(tables, t.ToModelTable())
	}
	return tables
}

// elementSpan records the byte range of an element within a buffer.
type elementSpan struct {
	start, end int // [start, end) of the full element
	openEnd    int // offset just past the start tag's '>'
}

// topLevelSpans returns spans of the named elements that are not nested
// inside another element of the same name.
func topLevelSpans(data []byte, local string) ([]elementSpan, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var spans []elementSpan
	var cur elementSpan
	depth := 0

	for {
		tokStart := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == local {
				if depth == 0 {
					cur = elementSpan{start: tokStart, openEnd: int(dec.InputOffset())}
				}
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == local {
				depth--
				if depth == 0 {
					cur.end = int(dec.InputOffset())
					spans = append(spans, cur)
				}
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unbalanced %s elements", local)
	}
	return spans, nil
}
