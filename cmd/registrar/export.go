package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/registrar"
)

var exportCmd = &cobra.Command{
	Use:   "export <input>",
	Short: "Export cleaned tables as XLSX, CSV, or Markdown",
	Long: `Export runs the cleaning pass and writes the cleaned tables in a
different format, chosen by the output extension: .xlsx, .csv, or .md.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return fmt.Errorf("--output is required")
		}

		proc := applyCleaningFlags(registrar.Open(in), cmd)

		var (
			rpt      *registrar.Report
			warnings []registrar.Warning
			err      error
		)
		switch strings.ToLower(filepath.Ext(out)) {
		case ".xlsx":
			rpt, warnings, err = proc.ExportXLSX(out)
		case ".csv":
			rpt, warnings, err = proc.ExportCSV(out)
		case ".md", ".markdown":
			rpt, warnings, err = proc.ExportMarkdown(out)
		default:
			return fmt.Errorf("unsupported export extension %q (use .xlsx, .csv, or .md)", filepath.Ext(out))
		}
		if err != nil {
			return err
		}
		for _, w := range warnings {
			slog.Warn("table warning", "table", w.Table, "message", w.Message)
		}

		fmt.Printf("exported %d tables (%d records) to %s\n", len(rpt.Tables), rpt.Records, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output path; extension picks the format (required)")
	exportCmd.Flags().String("rules", "", "YAML rules file replacing the built-in normalization rules")
	exportCmd.Flags().Bool("title-only", false, "treat rows with the same title as duplicates regardless of grades")
	exportCmd.Flags().IntSlice("tables", nil, "1-based table numbers to clean (default: all)")

	rootCmd.AddCommand(exportCmd)
}
