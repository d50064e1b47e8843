package transcript

import "fmt"

// TableReport summarizes one cleaning pass over a table.
type TableReport struct {
	// Rows is the number of rows scanned, including the header.
	Rows int
	// Records is the number of course records that survived cleaning.
	Records int
	// Duplicates is the number of records dropped as exact duplicates.
	Duplicates int
	// NoiseOnly is the number of data rows whose title normalized to
	// empty and were dropped entirely.
	NoiseOnly int
	// Malformed is the number of rows skipped as unclassifiable.
	Malformed int
	// Markers is the number of semester marker rows seen.
	Markers int
	// RowsWritten is the table's row count after the rebuild; zero when
	// the table was left untouched.
	RowsWritten int
	// Rebuilt reports whether the table body was replaced.
	Rebuilt bool
	// Warnings lists non-fatal formatting problems encountered while
	// capturing or re-applying cell formats.
	Warnings []string
}

// Engine runs the full cleaning pass: classify rows, normalize titles,
// resolve duplicates, rebuild the table. The zero value is not usable;
// call NewEngine.
type Engine struct {
	// Normalizer cleans course titles. NewEngine installs one with the
	// built-in rules.
	Normalizer *Normalizer
	// Policy selects duplicate detection behavior.
	Policy DedupePolicy
}

// NewEngine returns an Engine with the default normalizer and the exact
// (title, grade, score) duplicate policy.
func NewEngine() *Engine {
	return &Engine{Normalizer: NewNormalizer()}
}

// Process cleans one table in place. Rows are scanned strictly in
// document order; the current semester is carried forward from the most
// recent marker row and applied to the data rows after it.
//
// Tables with no transcript-shaped content at all (no data rows, no
// semester markers, nothing dropped as noise) are left untouched so
// that unrelated tables in the same document survive a cleaning pass.
//
// A non-nil error means the rebuild failed part-way; the caller must
// discard the document rather than persist it.
func (e *Engine) Process(t Table) (*TableReport, error) {
	rpt := &TableReport{}
	buckets := NewBucketSet()
	current := SemesterUnset

	for row := 0; row < t.RowCount(); row++ {
		rpt.Rows++
		cells := rowTexts(t, row)
		kind, sem := Classify(cells, row)

		switch kind {
		case RowHeader:
			// Row 0 survives the rebuild; repeated header rows do not.

		case RowSemesterMarker:
			current = sem
			rpt.Markers++

		case RowData:
			title := e.Normalizer.Normalize(cells[0])
			if title == "" {
				rpt.NoiseOnly++
				continue
			}
			rec := CourseRecord{
				Title:     title,
				Grade:     cells[1],
				Score:     cells[2],
				Semester:  current,
				SourceRow: row,
			}
			rec.Formats = e.captureFormats(t, row, rpt)
			buckets.Add(rec)

		case RowMalformed:
			rpt.Malformed++
		}
	}

	if buckets.Len() == 0 && rpt.Markers == 0 && rpt.NoiseOnly == 0 {
		return rpt, nil
	}

	rpt.Duplicates = buckets.resolveAll(e.Policy)
	rpt.Records = buckets.Len()

	written, warnings, err := Rebuild(t, buckets)
	rpt.Warnings = append(rpt.Warnings, warnings...)
	rpt.RowsWritten = written
	if err != nil {
		return rpt, err
	}
	rpt.Rebuilt = true
	return rpt, nil
}

// captureFormats reads the formatting of the title, grade, and score
// cells of a data row. Failures are recorded as warnings and leave the
// record with default formatting.
func (e *Engine) captureFormats(t Table, row int, rpt *TableReport) []CellFormat {
	formats := make([]CellFormat, 3)
	for col := 0; col < 3; col++ {
		f, err := t.CellFormat(row, col)
		if err != nil {
			rpt.Warnings = append(rpt.Warnings,
				fmt.Sprintf("row %d: reading cell %d formatting: %v", row, col, err))
			continue
		}
		formats[col] = f
	}
	return formats
}
