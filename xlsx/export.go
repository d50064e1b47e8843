package xlsx

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/registrar/model"
	"github.com/tsawler/registrar/transcript"
)

// Build creates a workbook holding the given tables, one sheet per
// table, and returns the serialized XLSX bytes. Unnamed tables get
// numbered sheet names.
func Build(tables ...*model.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles := make(map[transcript.CellFormat]int)
	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("naming sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %q: %w", name, err)
		}
		if err := writeModelSheet(f, name, t, styles); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildFile creates a workbook holding the given tables and writes it
// to the given path.
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

// writeModelSheet writes one model table into a sheet, merging the
// cells of spanning entries.
func writeModelSheet(f *excelize.File, sheet string, t *model.Table, styles map[transcript.CellFormat]int) error {
	for r, row := range t.Rows {
		col := 1
		for _, c := range row {
			name := cellName(col, r+1)
			if err := f.SetCellStr(sheet, name, c.Text); err != nil {
				return fmt.Errorf("writing cell %s in sheet %q: %w", name, sheet, err)
			}

			if !c.Format.IsZero() {
				id, ok := styles[c.Format]
				if !ok {
					var err error
					id, err = f.NewStyle(styleFromFormat(c.Format))
					if err != nil {
						return fmt.Errorf("creating style: %w", err)
					}
					styles[c.Format] = id
				}
				if err := f.SetCellStyle(sheet, name, name, id); err != nil {
					return fmt.Errorf("styling cell %s in sheet %q: %w", name, sheet, err)
				}
			}

			if c.Span > 1 {
				end := cellName(col+c.Span-1, r+1)
				if err := f.MergeCell(sheet, name, end); err != nil {
					return fmt.Errorf("merging %s:%s in sheet %q: %w", name, end, sheet, err)
				}
				col += c.Span
			} else {
				col++
			}
		}
	}
	return nil
}
