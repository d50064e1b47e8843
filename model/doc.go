// Package model provides the format-neutral table representation shared
// by every reader and writer in the module.
//
// A [Table] is rows of [Cell] values with text, character formatting,
// and an optional column span. The HTML and PDF readers produce these
// directly; the DOCX and XLSX backends convert to and from them so one
// cleaned table can be re-rendered in any output format.
//
// # Cleaning
//
// Table satisfies the transcript engine's table contract, including
// marker-row appends, so a model table can be cleaned in place exactly
// like a backend-native one:
//
//	table := model.FromRows("Sheet1", rows)
//	report, err := engine.Process(table)
//
// # Export
//
// Cleaned tables render to other formats with ToMarkdown and ToCSV, or
// through the docx and xlsx builders for document output.
package model
