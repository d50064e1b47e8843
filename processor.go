package registrar

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/registrar/docx"
	"github.com/tsawler/registrar/format"
	"github.com/tsawler/registrar/htmldoc"
	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/pdfdoc"
	"github.com/tsawler/registrar/transcript"
	"github.com/tsawler/registrar/xlsx"
)

// Processor provides a fluent interface for cleaning transcript
// documents. Each configuration method returns a new Processor
// instance, making it safe for concurrent use and allowing method
// chaining.
type Processor struct {
	// Source
	filename string

	// Configuration
	options processOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a copy of the Processor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (p *Processor) clone() *Processor {
	return &Processor{
		filename: p.filename,
		options:  p.options.clone(),
		err:      p.err,
	}
}

// ============================================================================
// Configuration Methods (return new Processor instance)
// ============================================================================

// Tables selects which tables to clean (1-indexed). Multiple calls are
// cumulative. By default every table in the document is cleaned.
//
// Example:
//
//	report, _, err := registrar.Open("t.docx").Tables(1, 3).Clean("out.docx")
func (p *Processor) Tables(nums ...int) *Processor {
	newProc := p.clone()
	newProc.options.tables = append(newProc.options.tables, nums...)
	return newProc
}

// DedupeTitleOnly configures duplicate detection to collapse records on
// the course title alone, keeping the first outcome seen. The default
// policy treats records as duplicates only when title, grade, and score
// all match, so retakes with a different outcome survive.
//
// Example:
//
//	report, _, err := registrar.Open("t.docx").DedupeTitleOnly().Clean("out.docx")
func (p *Processor) DedupeTitleOnly() *Processor {
	newProc := p.clone()
	newProc.options.policy = transcript.DedupeTitleOnly
	return newProc
}

// Rules replaces the built-in noise rules with a custom ordered list.
//
// Example:
//
//	rules, err := transcript.LoadRulesFile("school.yaml")
//	// handle err
//	report, _, err := registrar.Open("t.docx").Rules(rules).Clean("out.docx")
func (p *Processor) Rules(rules []transcript.Rule) *Processor {
	newProc := p.clone()
	newProc.options.rules = append([]transcript.Rule(nil), rules...)
	return newProc
}

// RulesFile loads a custom noise rule list from a YAML file. A load
// failure surfaces from the terminal operation.
//
// Example:
//
//	report, _, err := registrar.Open("t.docx").RulesFile("school.yaml").Clean("out.docx")
func (p *Processor) RulesFile(path string) *Processor {
	newProc := p.clone()
	rules, err := transcript.LoadRulesFile(path)
	if err != nil {
		newProc.err = fmt.Errorf("loading rules: %w", err)
		return newProc
	}
	newProc.options.rules = rules
	return newProc
}

// ============================================================================
// Terminal Operations (run the cleaning pass and return results)
// ============================================================================

// Preview cleans the selected tables in memory and returns the report
// without writing anything.
//
// Example:
//
//	report, warnings, err := registrar.Open("transcript.docx").Preview()
//	fmt.Printf("%d records, %d duplicates dropped\n", report.Records, report.Duplicates)
func (p *Processor) Preview() (*Report, []Warning, error) {
	return p.run(nil)
}

// Clean cleans the document and writes the result to outPath in the
// input's own format: DOCX output preserves all markup outside the
// rebuilt tables, XLSX output rewrites only the cleaned sheets. HTML
// and PDF are read-only source formats, so cleaning them requires an
// outPath ending in .docx or .xlsx; the cleaned tables are rebuilt into
// a fresh document of that format.
//
// Example:
//
//	report, warnings, err := registrar.Open("transcript.docx").Clean("cleaned.docx")
//	report, warnings, err := registrar.Open("transcript.pdf").Clean("cleaned.xlsx")
func (p *Processor) Clean(outPath string) (*Report, []Warning, error) {
	return p.run(func(rpt *Report, doc *document) error {
		switch doc.format {
		case format.DOCX:
			return doc.docx.Save(outPath)
		case format.XLSX:
			return doc.xlsx.Save(outPath)
		}

		// Read-only source formats rebuild into the format named by the
		// output path.
		switch strings.ToLower(filepath.Ext(outPath)) {
		case ".docx":
			return docx.BuildFile(outPath, rpt.ModelTables()...)
		case ".xlsx":
			return xlsx.BuildFile(outPath, rpt.ModelTables()...)
		default:
			return fmt.Errorf("cleaning a %s input requires a .docx or .xlsx output path", doc.format)
		}
	})
}

// ExportXLSX cleans the document and writes the cleaned tables to a new
// workbook, one sheet per table, regardless of the input format.
//
// Example:
//
//	report, warnings, err := registrar.Open("transcript.docx").ExportXLSX("cleaned.xlsx")
func (p *Processor) ExportXLSX(outPath string) (*Report, []Warning, error) {
	return p.run(func(rpt *Report, _ *document) error {
		return xlsx.BuildFile(outPath, rpt.ModelTables()...)
	})
}

// ExportCSV cleans the document and writes the cleaned tables as CSV.
func (p *Processor) ExportCSV(outPath string) (*Report, []Warning, error) {
	return p.run(func(rpt *Report, _ *document) error {
		return os.WriteFile(outPath, []byte(rpt.CSV()), 0o644)
	})
}

// ExportMarkdown cleans the document and writes the cleaned tables as
// markdown.
func (p *Processor) ExportMarkdown(outPath string) (*Report, []Warning, error) {
	return p.run(func(rpt *Report, _ *document) error {
		return os.WriteFile(outPath, []byte(rpt.Markdown()), 0o644)
	})
}

// ============================================================================
// Internal helpers
// ============================================================================

// document is one opened input file, normalized to the backend that can
// read it.
type document struct {
	format format.Format
	docx   *docx.Document
	xlsx   *xlsx.Workbook
	html   *htmldoc.Reader
	pdf    *pdfdoc.Document
}

func (d *document) close() error {
	if d.xlsx != nil {
		return d.xlsx.Close()
	}
	if d.html != nil {
		return d.html.Close()
	}
	return nil
}

// boundTable pairs an engine-facing table with its document position.
type boundTable struct {
	number   int
	name     string
	table    transcript.Table
	snapshot func() *model.Table
}

// tables lists the document's tables in document order.
func (d *document) tables() []boundTable {
	var out []boundTable
	add := func(name string, t transcript.Table, snap func() *model.Table) {
		out = append(out, boundTable{number: len(out) + 1, name: name, table: t, snapshot: snap})
	}

	switch d.format {
	case format.DOCX:
		for i, t := range d.docx.Tables() {
			add(fmt.Sprintf("Table %d", i+1), t, t.ToModelTable)
		}
	case format.XLSX:
		for _, s := range d.xlsx.Sheets() {
			add(s.Name, s, s.ToModelTable)
		}
	case format.HTML:
		for _, m := range d.html.Tables() {
			add(m.Name, m, func() *model.Table { return m })
		}
	case format.PDF:
		for _, m := range d.pdf.Tables() {
			add(m.Name, m, func() *model.Table { return m })
		}
	}
	return out
}

// open reads the input file and dispatches to the backend for its
// format. Detection tries the extension first, then content sniffing.
func (p *Processor) open() (*document, error) {
	if p.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}
	data, err := os.ReadFile(p.filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	f := format.Detect(p.filename)
	if f == format.Unknown {
		f, err = format.DetectFromReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("detecting format: %w", err)
		}
	}

	switch f {
	case format.DOCX:
		d, err := docx.OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to open DOCX: %w", err)
		}
		return &document{format: f, docx: d}, nil

	case format.XLSX:
		wb, err := xlsx.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open XLSX: %w", err)
		}
		return &document{format: f, xlsx: wb}, nil

	case format.HTML:
		r, err := htmldoc.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open HTML: %w", err)
		}
		return &document{format: f, html: r}, nil

	case format.PDF:
		d, err := pdfdoc.OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF: %w", err)
		}
		return &document{format: f, pdf: d}, nil

	default:
		return nil, ErrUnsupportedFormat
	}
}

// engine builds the cleaning engine configured by the chain.
func (p *Processor) engine() *transcript.Engine {
	eng := transcript.NewEngine()
	eng.Policy = p.options.policy
	if len(p.options.rules) > 0 {
		eng.Normalizer = transcript.NewNormalizer(p.options.rules...)
	}
	return eng
}

// resolveTables validates the 1-indexed table selection. An empty
// selection means every table.
func resolveTables(all []boundTable, selection []int) ([]boundTable, error) {
	if len(all) == 0 {
		return nil, ErrNoTables
	}
	if len(selection) == 0 {
		return all, nil
	}

	seen := make(map[int]bool)
	var out []boundTable
	for _, n := range selection {
		if n < 1 || n > len(all) {
			return nil, fmt.Errorf("table %d out of range (1-%d)", n, len(all))
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, all[n-1])
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out, nil
}

// run executes the cleaning pass: open, select, clean each table, then
// hand the report and the still-open document to write. A nil write
// keeps the pass in memory.
//
// A processing error means the rebuild failed part-way; nothing is
// written and the input file is left untouched.
func (p *Processor) run(write func(rpt *Report, doc *document) error) (*Report, []Warning, error) {
	if p.err != nil {
		return nil, nil, p.err
	}

	doc, err := p.open()
	if err != nil {
		return nil, nil, err
	}
	defer doc.close()

	selected, err := resolveTables(doc.tables(), p.options.tables)
	if err != nil {
		return nil, nil, err
	}

	engine := p.engine()
	rpt := &Report{Filename: p.filename, Format: doc.format}
	var warnings []Warning

	for _, bt := range selected {
		tr, err := engine.Process(bt.table)
		if err != nil {
			return nil, warnings, fmt.Errorf("table %d: %w", bt.number, err)
		}
		for _, msg := range tr.Warnings {
			warnings = append(warnings, Warning{Table: bt.number, Message: msg})
		}
		rpt.addTable(bt.number, bt.name, tr, bt.snapshot())
	}

	if write != nil {
		if err := write(rpt, doc); err != nil {
			return rpt, warnings, err
		}
	}
	return rpt, warnings, nil
}
