package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newRouteCmd creates the "agora route" subcommand.
func newRouteCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "route <description...>",
		Short: "Route a task to its room and post the assignment",
		Long:  "Classifies the task, selects the destination room (honoring the target\nagent's preferred rooms), and posts an assignment message tagged with a\nfresh task id.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := b.RouteAndNotify(cmd.Context(), description, target)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "room:    %s\n", result.Room)
			fmt.Fprintf(w, "task id: %s\n", result.TaskID)
			fmt.Fprintf(w, "posted:  %s\n", result.EnhancedBody)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target agent id")
	return cmd
}
