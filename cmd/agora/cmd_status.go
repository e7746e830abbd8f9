package main

import (
	"fmt"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/registry"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the "agora status" subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bus state at a glance",
		Long:  "Summarizes the coordination database: rooms with message counts, agent\nliveness, and pending dependency waits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			rooms, err := s.Rooms(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "rooms: %d\n", len(rooms))
			for _, room := range rooms {
				n, err := s.RoomCount(ctx, room)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %-24s %d\n", room, n)
			}

			window := cfg.LivenessWindow.Std()
			if window == 0 {
				window = registry.DefaultLivenessWindow
			}
			regs, err := s.ListAgents(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			var active, stale, stopped int
			for _, reg := range regs {
				switch reg.Status(now, window) {
				case protocol.AgentActive:
					active++
				case protocol.AgentStale:
					stale++
				default:
					stopped++
				}
			}
			fmt.Fprintf(w, "agents: %d active, %d stale, %d stopped\n", active, stale, stopped)

			pending, err := s.PendingDependencies(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "pending dependencies: %d\n", len(pending))
			for _, dep := range pending {
				fmt.Fprintf(w, "  %s waits on %s %s\n", dep.WaitingAgent, dep.Kind, dep.Target)
			}
			return nil
		},
	}
}
