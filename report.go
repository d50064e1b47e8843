package registrar

import (
	"strings"

	"github.com/tsawler/registrar/format"
	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// TableResult pairs one table's cleaning counts with its cleaned
// content.
type TableResult struct {
	// Number is the table's 1-based position in the document.
	Number int
	// Name labels the table: a sheet name, a caption, a page number, or
	// "Table N" when the source format has no name of its own.
	Name string
	// TableReport holds the per-table counts from the cleaning pass.
	transcript.TableReport
	// Table is a snapshot of the cleaned table.
	Table *model.Table
}

// Report summarizes a cleaning pass over one document. The count fields
// are totals across all processed tables.
type Report struct {
	// Filename is the input path.
	Filename string
	// Format is the detected input format.
	Format format.Format
	// Tables holds one result per processed table, in document order.
	Tables []TableResult

	// Records is the number of course records that survived cleaning.
	Records int
	// Duplicates is the number of records dropped as duplicates.
	Duplicates int
	// NoiseOnly is the number of rows dropped because their title
	// normalized to nothing.
	NoiseOnly int
	// Malformed is the number of rows skipped as unclassifiable.
	Malformed int
	// Markers is the number of semester marker rows seen.
	Markers int
	// Cleaned is the number of tables whose body was rebuilt.
	Cleaned int
}

// addTable records one table's outcome and folds its counts into the
// document totals.
func (r *Report) addTable(number int, name string, tr *transcript.TableReport, snapshot *model.Table) {
	r.Tables = append(r.Tables, TableResult{
		Number:      number,
		Name:        name,
		TableReport: *tr,
		Table:       snapshot,
	})
	r.Records += tr.Records
	r.Duplicates += tr.Duplicates
	r.NoiseOnly += tr.NoiseOnly
	r.Malformed += tr.Malformed
	r.Markers += tr.Markers
	if tr.Rebuilt {
		r.Cleaned++
	}
}

// ModelTables returns the cleaned tables in document order.
func (r *Report) ModelTables() []*model.Table {
	tables := make([]*model.Table, 0, len(r.Tables))
	for _, tr := range r.Tables {
		tables = append(tables, tr.Table)
	}
	return tables
}

// CSV renders every cleaned table as comma-separated values, tables
// separated by a blank line.
func (r *Report) CSV() string {
	parts := make([]string, 0, len(r.Tables))
	for _, tr := range r.Tables {
		parts = append(parts, tr.Table.ToCSV())
	}
	return strings.Join(parts, "\n")
}

// Markdown renders every cleaned table as a markdown table, tables
// separated by a blank line.
func (r *Report) Markdown() string {
	parts := make([]string, 0, len(r.Tables))
	for _, tr := range r.Tables {
		parts = append(parts, tr.Table.ToMarkdown())
	}
	return strings.Join(parts, "\n")
}
