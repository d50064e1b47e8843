package transcript

import "fmt"

// markerFormat is applied to semester header rows.
var markerFormat = CellFormat{Bold: true, Alignment: AlignCenter}

// plannedRow is one row of the computed replacement body.
type plannedRow struct {
	marker  bool
	label   string
	texts   []string
	formats []CellFormat
	source  int
}

// Rebuild replaces the table's body with the bucket set's contents: the
// header row stays at index 0, and each non-empty bucket contributes one
// semester header row followed by its records in order. The complete
// replacement body is computed before the table is touched; the apply
// step then removes the old rows and appends the new ones.
//
// Rebuild returns the table's final row count and any formatting
// warnings. A non-nil error means a structural write failed and the
// table may be partially rebuilt; callers must discard the document
// rather than persist it.
func Rebuild(t Table, buckets *BucketSet) (int, []string, error) {
	if t.RowCount() == 0 {
		return 0, nil, nil
	}

	width := t.CellCount(0)
	if width < 3 {
		width = 3
	}

	var plan []plannedRow
	for _, sem := range buckets.Semesters() {
		plan = append(plan, plannedRow{marker: true, label: sem.Label(), source: -1})
		for _, rec := range buckets.Records(sem) {
			plan = append(plan, plannedRow{
				texts:   []string{rec.Title, rec.Grade, rec.Score},
				formats: rec.Formats,
				source:  rec.SourceRow,
			})
		}
	}

	for row := t.RowCount() - 1; row >= 1; row-- {
		if err := t.RemoveRow(row); err != nil {
			return t.RowCount(), nil, fmt.Errorf("removing row %d: %w", row, err)
		}
	}

	var warnings []string
	for _, p := range plan {
		if p.marker {
			if err := appendMarker(t, p.label, width, &warnings); err != nil {
				return t.RowCount(), warnings, err
			}
			continue
		}
		if err := appendRecord(t, p, width, &warnings); err != nil {
			return t.RowCount(), warnings, err
		}
	}

	return t.RowCount(), warnings, nil
}

func appendMarker(t Table, label string, width int, warnings *[]string) error {
	if ma, ok := t.(MarkerAppender); ok {
		if _, err := ma.AppendMarkerRow(label, markerFormat); err != nil {
			return fmt.Errorf("appending %q header: %w", label, err)
		}
		return nil
	}

	row, err := t.AppendRow(width)
	if err != nil {
		return fmt.Errorf("appending %q header: %w", label, err)
	}
	if err := t.SetCellText(row, 0, label); err != nil {
		return fmt.Errorf("writing %q header: %w", label, err)
	}
	if err := t.SetCellFormat(row, 0, markerFormat); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("row %d: formatting %q header: %v", row, label, err))
	}
	return nil
}

func appendRecord(t Table, p plannedRow, width int, warnings *[]string) error {
	if rc, ok := t.(RowCloner); ok && p.source >= 0 {
		if _, err := rc.AppendRowFrom(p.source, p.texts); err != nil {
			return fmt.Errorf("appending row for %q: %w", p.texts[0], err)
		}
		return nil
	}

	row, err := t.AppendRow(width)
	if err != nil {
		return fmt.Errorf("appending row for %q: %w", p.texts[0], err)
	}
	for col, text := range p.texts {
		if err := t.SetCellText(row, col, text); err != nil {
			return fmt.Errorf("writing cell [%d][%d]: %w", row, col, err)
		}
		f := cellFormatFor(p.formats, col)
		if err := t.SetCellFormat(row, col, f); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("row %d: copying cell %d formatting: %v", row, col, err))
		}
	}
	return nil
}

// cellFormatFor picks the captured format for a column, defaulting the
// grade and score columns to centered when no alignment was captured.
func cellFormatFor(formats []CellFormat, col int) CellFormat {
	var f CellFormat
	if col < len(formats) {
		f = formats[col]
	}
	if f.Alignment == AlignDefault && col >= 1 {
		f.Alignment = AlignCenter
	}
	return f
}
