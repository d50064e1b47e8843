package registrar_test

import (
	"fmt"
	"log"

	"github.com/tsawler/registrar"
	"github.com/tsawler/registrar/transcript"
)

// These examples verify the README code samples compile correctly.
// They are not meant to be run as actual tests since they require files.

func Example_cleanTranscript() {
	// Works with DOCX and XLSX files in place
	report, warnings, err := registrar.Open("transcript.docx").Clean("cleaned.docx")
	// report, warnings, err := registrar.Open("transcript.xlsx").Clean("cleaned.xlsx")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%d records kept, %d duplicates dropped\n", report.Records, report.Duplicates)

	for _, w := range warnings {
		fmt.Println("Warning:", w.Message)
	}
}

func Example_convertFormats() {
	// HTML and PDF inputs are rebuilt into a fresh DOCX or XLSX
	report, warnings, err := registrar.Open("transcript.pdf").Clean("cleaned.docx")
	_ = report
	_ = warnings
	_ = err

	report, warnings, err = registrar.Open("transcript.html").Clean("cleaned.xlsx")
	_ = report
	_ = warnings
	_ = err
}

func Example_cleanWithOptions() {
	report, warnings, err := registrar.Open("transcript.docx").
		Tables(1, 2).              // Clean specific tables (1-indexed)
		DedupeTitleOnly().         // Collapse retakes onto the first outcome
		RulesFile("school.yaml").  // Replace the built-in noise rules
		Clean("cleaned.docx")
	_ = report
	_ = warnings
	_ = err
}

func Example_preview() {
	// Clean in memory without writing anything
	report, warnings, err := registrar.Open("transcript.docx").Preview()
	if err != nil {
		log.Fatal(err)
	}
	_ = warnings

	for _, tr := range report.Tables {
		fmt.Printf("%s: %d rows in, %d rows out\n", tr.Name, tr.Rows, tr.RowsWritten)
	}
}

func Example_export() {
	// Export cleaned tables regardless of input format
	report, _, err := registrar.Open("transcript.docx").ExportXLSX("cleaned.xlsx")
	if err != nil {
		log.Fatal(err)
	}
	_ = report

	// Or render them from a preview
	report, _, err = registrar.Open("transcript.docx").Preview()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(report.Markdown())
}

func Example_customRules() {
	rules, err := transcript.LoadRulesFile("school.yaml")
	if err != nil {
		log.Fatal(err)
	}

	report, _, err := registrar.Open("transcript.docx").Rules(rules).Preview()
	_ = report
	_ = err
}

func Example_warnings() {
	report, warnings, err := registrar.Open("transcript.docx").Clean("cleaned.docx")
	if err != nil {
		log.Fatal(err) // Fatal error
	}
	_ = report

	for _, w := range warnings {
		log.Println("Warning:", w.Message) // Non-fatal issues
	}

	// Format all warnings
	formatted := registrar.FormatWarnings(warnings)
	_ = formatted
}

func Example_errorHandling() {
	// Panic on error (for scripts/tests)
	report := registrar.MustReport(registrar.Open("transcript.docx").Preview())
	rules := registrar.Must(transcript.LoadRulesFile("school.yaml"))
	_ = report
	_ = rules
}
