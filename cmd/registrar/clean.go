package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tsawler/registrar"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <input>",
	Short: "Clean transcript tables and write the cleaned document",
	Long: `Clean normalizes course titles, removes noise and duplicate rows, and
writes the cleaned document. DOCX and XLSX inputs keep their format; for
HTML and PDF inputs the output path's extension picks DOCX or XLSX.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = defaultOutputPath(in)
		}

		proc := applyCleaningFlags(registrar.Open(in), cmd)
		rpt, warnings, err := proc.Clean(out)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			slog.Warn("table warning", "table", w.Table, "message", w.Message)
		}

		fmt.Printf("cleaned %d of %d tables: %d records kept, %d duplicates and %d noise rows removed\n",
			rpt.Cleaned, len(rpt.Tables), rpt.Records, rpt.Duplicates, rpt.NoiseOnly)
		fmt.Printf("wrote %s\n", out)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringP("output", "o", "", "output path (default: converted_<input>)")
	cleanCmd.Flags().String("rules", "", "YAML rules file replacing the built-in normalization rules")
	cleanCmd.Flags().Bool("title-only", false, "treat rows with the same title as duplicates regardless of grades")
	cleanCmd.Flags().IntSlice("tables", nil, "1-based table numbers to clean (default: all)")

	rootCmd.AddCommand(cleanCmd)
}
