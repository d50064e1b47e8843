package transcript

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		index    int
		wantKind RowKind
		wantSem  Semester
	}{
		{"row zero is header", []string{"Algebra I", "10", "3.5"}, 0, RowHeader, SemesterUnset},
		{"header label", []string{"Course Title", "Grade", "GPA"}, 4, RowHeader, SemesterUnset},
		{"header label average", []string{"AVERAGE", "", "3.7"}, 9, RowHeader, SemesterUnset},

		{"first semester marker", []string{"1st Semester"}, 1, RowSemesterMarker, SemesterFirst},
		{"first semester spelled out", []string{"First Semester", "", ""}, 2, RowSemesterMarker, SemesterFirst},
		{"second semester marker", []string{"", "2nd Semester", ""}, 5, RowSemesterMarker, SemesterSecond},
		{"marker split across cells", []string{"2nd", "Semester"}, 3, RowSemesterMarker, SemesterSecond},
		{"marker beats data shape", []string{"1st Semester", "10", "3.5"}, 2, RowSemesterMarker, SemesterFirst},

		{"data row", []string{"Algebra I", "10", "3.5"}, 3, RowData, SemesterUnset},
		{"data row decimal grade", []string{"Chemistry", "11.5", "88"}, 7, RowData, SemesterUnset},
		{"data row extra cells", []string{"Biology", "10", "3.8", "notes"}, 2, RowData, SemesterUnset},

		{"too few cells", []string{"Algebra I", "10"}, 3, RowMalformed, SemesterUnset},
		{"non-numeric grade", []string{"Algebra I", "ten", "3.5"}, 3, RowMalformed, SemesterUnset},
		{"two decimal points", []string{"Algebra I", "3..5", "90"}, 3, RowMalformed, SemesterUnset},
		{"empty title", []string{"", "10", "3.5"}, 3, RowMalformed, SemesterUnset},
		{"empty row", []string{}, 6, RowMalformed, SemesterUnset},
		{"grade is just a dot", []string{"Algebra I", ".", "90"}, 3, RowMalformed, SemesterUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, sem := Classify(tt.cells, tt.index)
			if kind != tt.wantKind {
				t.Errorf("Classify(%v, %d) kind = %v, want %v", tt.cells, tt.index, kind, tt.wantKind)
			}
			if sem != tt.wantSem {
				t.Errorf("Classify(%v, %d) semester = %v, want %v", tt.cells, tt.index, sem, tt.wantSem)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	valid := []string{"10", "3.5", "100", "0.25", ".5", "5."}
	for _, s := range valid {
		if !isNumeric(s) {
			t.Errorf("isNumeric(%q) = false, want true", s)
		}
	}

	invalid := []string{"", ".", "1.2.3", "3,5", "ten", "10a", "-5"}
	for _, s := range invalid {
		if isNumeric(s) {
			t.Errorf("isNumeric(%q) = true, want false", s)
		}
	}
}
