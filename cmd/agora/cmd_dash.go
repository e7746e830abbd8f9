package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// newDashCmd creates the "agora dash" subcommand.
func newDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Launch the interactive dashboard",
		Long:  "Opens the agora dashboard TUI for watching rooms and agent liveness.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dashCmd := exec.CommandContext(cmd.Context(), "agora-dash")
			dashCmd.Stdin = os.Stdin
			dashCmd.Stdout = os.Stdout
			dashCmd.Stderr = os.Stderr

			if err := dashCmd.Run(); err != nil {
				return fmt.Errorf("run agora-dash: %w", err)
			}
			return nil
		},
	}
}
