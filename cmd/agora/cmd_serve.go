package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"agora/pkg/bus"

	"github.com/spf13/cobra"
)

// newServeCmd creates the "agora serve" subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the coordination daemon",
		Long:  "Runs the bus maintenance loop in the foreground: retention sweeps,\ndependency reaping, room rotation notices, and policy table hot-reload.\nStops cleanly on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := bus.New(cfg, s)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "agora daemon on %s (sweep every %s)\n",
				cfg.DBPath, cfg.SweepInterval.Std())
			return b.Run(ctx)
		},
	}
}
