package transcript

import "strings"

// headerLabels are first-cell texts that mark a row as a column header
// even when it is not row 0. Compared case-insensitively.
var headerLabels = map[string]struct{}{
	"course title": {},
	"average":      {},
}

// semester marker phrases, matched against the row's concatenated,
// case-folded cell text.
var markerPhrases = []struct {
	phrase   string
	semester Semester
}{
	{"1st semester", SemesterFirst},
	{"first semester", SemesterFirst},
	{"2nd semester", SemesterSecond},
	{"second semester", SemesterSecond},
}

// Classify determines what kind of row the given cell texts form. index
// is the row's position in the table; row 0 is always the header. For
// RowSemesterMarker rows the returned Semester says which section the
// marker opens; for every other kind it is SemesterUnset.
//
// Classification is stateless. The scan state that markers feed (the
// current semester) is carried by the caller's row loop.
func Classify(cells []string, index int) (RowKind, Semester) {
	if index == 0 {
		return RowHeader, SemesterUnset
	}
	if len(cells) > 0 {
		first := strings.ToLower(strings.TrimSpace(cells[0]))
		if _, ok := headerLabels[first]; ok {
			return RowHeader, SemesterUnset
		}
	}

	joined := strings.ToLower(strings.Join(cells, " "))
	for _, m := range markerPhrases {
		if strings.Contains(joined, m.phrase) {
			return RowSemesterMarker, m.semester
		}
	}

	if len(cells) >= 3 &&
		strings.TrimSpace(cells[0]) != "" &&
		isNumeric(strings.TrimSpace(cells[1])) {
		return RowData, SemesterUnset
	}

	return RowMalformed, SemesterUnset
}

// isNumeric reports whether s is digits with at most one decimal point.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// rowTexts collects the trimmed cell texts of one row.
func rowTexts(t Table, row int) []string {
	n := t.CellCount(row)
	cells := make([]string, n)
	for c := 0; c < n; c++ {
		cells[c] = strings.TrimSpace(t.CellText(row, c))
	}
	return cells
}
