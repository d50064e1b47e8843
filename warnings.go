package registrar

import (
	"fmt"
	"strings"
)

// Warning describes a non-fatal problem encountered while cleaning,
// such as a cell whose formatting could not be copied or a table
// skipped as malformed. Processing succeeded, but the result may be
// imperfect.
type Warning struct {
	// Table is the 1-based number of the table the warning refers to,
	// or 0 for document-level warnings.
	Table int
	// Message describes the problem.
	Message string
}

// String returns the warning as "table N: message", or just the message
// for document-level warnings.
func (w Warning) String() string {
	if w.Table > 0 {
		return fmt.Sprintf("table %d: %s", w.Table, w.Message)
	}
	return w.Message
}

// FormatWarnings renders a warning list one per line, for logging.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
