package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsawler/registrar/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent processing jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer db.Close()

		jobs, err := db.Recent(limit)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(jobs)
		}

		if len(jobs) == 0 {
			fmt.Println("no jobs recorded")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tFILE\tFORMAT\tSTATUS\tRECORDS\tDUPES\tNOISE\tMS")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				j.CreatedAt, j.Filename, j.Format, j.Status,
				j.Records, j.Duplicates, j.NoiseOnly, j.DurationMS)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of jobs to show")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
