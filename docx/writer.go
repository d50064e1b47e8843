package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Bytes serializes the document to DOCX bytes. Rebuilt tables are
// spliced over their original spans in word/document.xml; every other
// archive part is written back unchanged.
func (d *Document) Bytes() ([]byte, error) {
	doc := d.rewriteDocument()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, e := range d.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("creating archive entry %s: %w", e.name, err)
		}
		data := e.data
		if i == d.docEntry {
			data = doc
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("writing archive entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing ZIP archive: %w", err)
	}

	return buf.Bytes(), nil
}

// rewriteDocument splices the current table states into document.xml.
// A table that was never touched reproduces its original bytes, so the
// splice is a no-op for it.
func (d *Document) rewriteDocument() []byte {
	src := d.documentData()
	var buf bytes.Buffer
	prev := 0
	for _, t := range d.tables {
		buf.Write(src[prev:t.span.start])
		t.appendBytes(&buf)
		prev = t.span.end
	}
	buf.Write(src[prev:])
	return buf.Bytes()
}

// Save writes the document to a file.
func (d *Document) Save(filename string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Write writes the document to w.
func (d *Document) Write(w io.Writer) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// ============================================================================
// Run and paragraph property builders
// ============================================================================

// writePPr writes paragraph properties carrying the given alignment.
func writePPr(buf *bytes.Buffer, prefix string, align transcript.Alignment) {
	jc := jcFromAlignment(align)
	if jc == "" {
		return
	}
	p := tagPrefix(prefix)
	buf.WriteString("<" + p + "pPr><" + p + `jc w:val="` + jc + `"/></` + p + "pPr>")
}

// writeRPr writes run properties for the non-zero parts of a format.
func writeRPr(buf *bytes.Buffer, prefix string, format transcript.CellFormat) {
	if format.FontName == "" && format.FontSize == 0 && !format.Bold && !format.Italic {
		return
	}
	p := tagPrefix(prefix)
	buf.WriteString("<" + p + "rPr>")
	if format.FontName != "" {
		name := escapeXML(format.FontName)
		buf.WriteString("<" + p + `rFonts w:ascii="` + name + `" w:hAnsi="` + name + `"/>`)
	}
	if format.Bold {
		buf.WriteString("<" + p + "b/>")
	}
	if format.Italic {
		buf.WriteString("<" + p + "i/>")
	}
	if format.FontSize > 0 {
		// Word stores font sizes in half-points.
		sz := strconv.FormatFloat(format.FontSize*2, 'f', -1, 64)
		buf.WriteString("<" + p + `sz w:val="` + sz + `"/>`)
	}
	buf.WriteString("</" + p + "rPr>")
}

// writeCellText writes a w:t element, preserving edge whitespace.
func writeCellText(buf *bytes.Buffer, prefix, text string) {
	if text == "" {
		return
	}
	p := tagPrefix(prefix)
	if strings.TrimSpace(text) != text {
		buf.WriteString("<" + p + `t xml:space="preserve">`)
	} else {
		buf.WriteString("<" + p + "t>")
	}
	buf.WriteString(escapeXML(text))
	buf.WriteString("</" + p + "t>")
}

func tagPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + ":"
}

// escapeXML escapes text for use in XML content or attribute values.
func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// ============================================================================
// Document synthesis
// ============================================================================

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Build synthesizes a new DOCX document containing the given tables.
// It is used to render cleaned transcripts extracted from formats that
// cannot be rewritten in place, such as PDF.
func Build(tables ...*model.Table) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString("\n<w:document xmlns:w=\"" + nsW + "\"><w:body>")
	for _, t := range tables {
		writeModelTable(&doc, t)
		// Word requires a paragraph between and after body tables.
		doc.WriteString("<w:p/>")
	}
	doc.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []zipEntry{
		{name: "[Content_Types].xml", data: []byte(contentTypesXML)},
		{name: "_rels/.rels", data: []byte(rootRelsXML)},
		{name: "word/document.xml", data: doc.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("creating archive entry %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("writing archive entry %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing ZIP archive: %w", err)
	}

	return buf.Bytes(), nil
}

// BuildFile synthesizes a new DOCX document and writes it to a file.
func BuildFile(filename string, tables ...*model.Table) error {
	data, err := Build(tables...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// writeModelTable writes one model.Table as a bordered w:tbl.
func writeModelTable(buf *bytes.Buffer, t *model.Table) {
	cols := t.ColCount()
	if cols < 1 {
		cols = 1
	}

	buf.WriteString("<w:tbl><w:tblPr><w:tblW w:w=\"0\" w:type=\"auto\"/><w:tblBorders>")
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		buf.WriteString(`<w:` + edge + ` w:val="single" w:sz="4" w:space="0" w:color="auto"/>`)
	}
	buf.WriteString("</w:tblBorders></w:tblPr><w:tblGrid>")
	colWidth := strconv.Itoa(9360 / cols)
	for i := 0; i < cols; i++ {
		buf.WriteString(`<w:gridCol w:w="` + colWidth + `"/>`)
	}
	buf.WriteString("</w:tblGrid>")

	for _, row := range t.Rows {
		buf.WriteString("<w:tr>")
		for _, cell := range row {
			buf.WriteString("<w:tc>")
			if cell.Span > 1 {
				buf.WriteString(`<w:tcPr><w:gridSpan w:val="` + strconv.Itoa(cell.Span) + `"/></w:tcPr>`)
			}
			buf.WriteString("<w:p>")
			writePPr(buf, "w", cell.Format.Alignment)
			if cell.Text != "" {
				buf.WriteString("<w:r>")
				writeRPr(buf, "w", cell.Format)
				writeCellText(buf, "w", cell.Text)
				buf.WriteString("</w:r>")
			}
			buf.WriteString("</w:p></w:tc>")
		}
		buf.WriteString("</w:tr>")
	}

	buf.WriteString("</w:tbl>")
}
