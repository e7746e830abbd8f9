package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/registry"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// newHeartbeatCmd creates the "agora heartbeat" subcommand.
func newHeartbeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat <agent-id>",
		Short: "Refresh an agent's liveness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Heartbeat(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "heartbeat recorded for %s\n", args[0])
			return nil
		},
	}
}

// agentsConfig holds flag values for the agents command.
type agentsConfig struct {
	activeOnly bool
	capability string
	stop       string
}

// newAgentsCmd creates the "agora agents" subcommand.
func newAgentsCmd() *cobra.Command {
	var cfg agentsConfig

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List registered agents and their liveness",
		Long:  "Lists agents with derived status: active (heartbeat within the liveness\nwindow), stale, or stopped. Status is computed at display time, never\nstored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cc, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if cfg.stop != "" {
				if err := s.MarkStopped(cmd.Context(), cfg.stop); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %s stopped\n", cfg.stop)
				return nil
			}

			window := cc.LivenessWindow.Std()
			if window == 0 {
				window = registry.DefaultLivenessWindow
			}

			var regs []protocol.Registration
			if cfg.activeOnly {
				regs, err = s.ListActiveAgents(cmd.Context(), window)
			} else {
				regs, err = s.ListAgents(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			now := time.Now()
			styles := newStatusStyles()
			shown := 0
			for _, reg := range regs {
				if cfg.capability != "" && !reg.Profile.HasCapability(cfg.capability) {
					continue
				}
				shown++
				status := reg.Status(now, window)
				fmt.Fprintf(w, "%-20s %-8s role=%-12s caps=%s\n",
					reg.AgentID,
					styles.render(status),
					orDash(reg.Profile.Role),
					strings.Join(reg.Profile.Capabilities, ","))
			}
			if shown == 0 {
				fmt.Fprintln(w, "no agents")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.activeOnly, "active", false, "show only active agents")
	cmd.Flags().StringVar(&cfg.capability, "cap", "", "filter by capability")
	cmd.Flags().StringVar(&cfg.stop, "stop", "", "mark an agent stopped instead of listing")

	return cmd
}

// statusStyles colors agent status labels on a tty.
type statusStyles struct {
	active  lipgloss.Style
	stale   lipgloss.Style
	stopped lipgloss.Style
	color   bool
}

func newStatusStyles() statusStyles {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return statusStyles{}
	}
	return statusStyles{
		active:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		stale:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		stopped: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		color:   true,
	}
}

func (st statusStyles) render(status protocol.AgentStatus) string {
	if !st.color {
		return string(status)
	}
	switch status {
	case protocol.AgentActive:
		return st.active.Render(string(status))
	case protocol.AgentStale:
		return st.stale.Render(string(status))
	default:
		return st.stopped.Render(string(status))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
