// Package registrar provides a fluent API for cleaning academic
// transcript documents: stripping administrative noise from course
// titles, dropping duplicate records, and regrouping courses under
// semester headers while preserving the document's formatting.
//
// Basic usage:
//
//	report, warnings, err := registrar.Open("transcript.docx").Clean("cleaned.docx")
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", registrar.FormatWarnings(warnings))
//	}
//
// With options:
//
//	report, _, err := registrar.Open("transcript.xlsx").
//	    Tables(1).
//	    DedupeTitleOnly().
//	    Clean("cleaned.xlsx")
//
// DOCX and XLSX inputs are cleaned in their own format. HTML and PDF
// inputs are read-only source formats: cleaning them requires an output
// path ending in .docx or .xlsx, and the cleaned tables are rebuilt into
// a fresh document. For advanced use cases the lower-level docx, xlsx,
// htmldoc, and pdfdoc packages are also available.
package registrar

import "errors"

// ErrNoTables indicates that the input document contains no tables to
// clean.
var ErrNoTables = errors.New("no tables found in document")

// ErrUnsupportedFormat indicates that the input file is not a DOCX,
// XLSX, HTML, or PDF document.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Open prepares a Processor for the given transcript document. The file
// format is detected from the extension, falling back to content
// sniffing. The file itself is not opened until a terminal operation
// runs.
//
// Example:
//
//	report, warnings, err := registrar.Open("transcript.docx").Clean("cleaned.docx")
func Open(filename string) *Processor {
	return &Processor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	rules := registrar.Must(transcript.LoadRulesFile("rules.yaml"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustReport is a helper that wraps a terminal operation and panics if
// the error is non-nil. It discards warnings and returns just the
// report.
//
// Example:
//
//	report := registrar.MustReport(registrar.Open("transcript.docx").Preview())
func MustReport(rpt *Report, _ []Warning, err error) *Report {
	if err != nil {
		panic(err)
	}
	return rpt
}
