package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/registrar/internal/server"
	"github.com/tsawler/registrar/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload service",
	Long: `Serve starts an HTTP server that accepts document uploads on
POST /api/upload and streams back the cleaned file. Processing history
is available at GET /api/jobs and via the history command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.ListenAddr = addr
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, db, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default from config)")

	rootCmd.AddCommand(serveCmd)
}
