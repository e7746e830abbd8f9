package main

import (
	"fmt"
	"strings"

	"agora/pkg/protocol"

	"github.com/spf13/cobra"
)

// postConfig holds flag values for the post command.
type postConfig struct {
	sender   string
	step     int
	phase    string
	priority string
	taskID   string
	target   string
	kind     string
}

// newPostCmd creates the "agora post" subcommand.
func newPostCmd() *cobra.Command {
	var cfg postConfig

	cmd := &cobra.Command{
		Use:   "post <room> <body...>",
		Short: "Post a message to a room",
		Long:  "Appends a message to a room's durable log. Completion kinds\n(task-complete, phase-complete, agent-ready) also re-evaluate pending\ndependencies, so a post can unblock waiting agents.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := args[0]
			body := strings.Join(args[1:], " ")

			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := b.PostMessage(cmd.Context(), room, body, cfg.sender, protocol.MessageContext{
				Step:     cfg.step,
				Phase:    cfg.phase,
				Priority: cfg.priority,
				TaskID:   cfg.taskID,
				Target:   cfg.target,
				Kind:     cfg.kind,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "posted to %s (seq %d)\n", receipt.Room, receipt.Seq)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.sender, "sender", "", "sending agent id")
	cmd.Flags().IntVar(&cfg.step, "step", 0, "pipeline step context")
	cmd.Flags().StringVar(&cfg.phase, "phase", "", "phase context")
	cmd.Flags().StringVar(&cfg.priority, "priority", "", "priority tag")
	cmd.Flags().StringVar(&cfg.taskID, "task", "", "task id context")
	cmd.Flags().StringVar(&cfg.target, "target", "", "target agent id")
	cmd.Flags().StringVar(&cfg.kind, "kind", "", "event kind (e.g. task-complete)")

	return cmd
}
