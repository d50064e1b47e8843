// Package main is the entry point for the registrar CLI.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/registrar"
	"github.com/tsawler/registrar/format"
	"github.com/tsawler/registrar/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the loaded configuration, shared by the subcommands.
var cfg config.Config

// rootCmd is the base command for the registrar CLI.
var rootCmd = &cobra.Command{
	Use:   "registrar",
	Short: "Clean academic transcript tables in DOCX, XLSX, HTML, and PDF files",
	Long: `registrar normalizes course titles, drops noise and duplicate rows, and
rebuilds transcript tables while keeping their formatting. DOCX and XLSX
documents are cleaned in their own format; HTML and PDF are read-only
inputs whose cleaned tables come back as DOCX or XLSX.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./registrar.yaml or ~/.config/registrar/registrar.yaml)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
		var err error
		cfg, err = config.LoadFile(cfgFile)
		return err
	}
}

// applyCleaningFlags wires the flags shared by clean and export into a
// processor chain.
func applyCleaningFlags(proc *registrar.Processor, cmd *cobra.Command) *registrar.Processor {
	rules, _ := cmd.Flags().GetString("rules")
	if rules == "" {
		rules = cfg.RulesFile
	}
	if rules != "" {
		proc = proc.RulesFile(rules)
	}
	if titleOnly, _ := cmd.Flags().GetBool("title-only"); titleOnly {
		proc = proc.DedupeTitleOnly()
	}
	if tables, _ := cmd.Flags().GetIntSlice("tables"); len(tables) > 0 {
		proc = proc.Tables(tables...)
	}
	return proc
}

// defaultOutputPath derives the output path when -o is not given:
// converted_<name> next to the input. HTML and PDF inputs default to a
// DOCX copy.
func defaultOutputPath(in string) string {
	name := filepath.Base(in)
	switch format.Detect(name) {
	case format.HTML, format.PDF:
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".docx"
	}
	return filepath.Join(filepath.Dir(in), "converted_"+name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
