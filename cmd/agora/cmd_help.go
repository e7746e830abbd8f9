package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// helpText is the categorized help output for "agora help".
const helpText = `Agora - multi-agent message bus

Setup:
  init       Create the state directory, database, and default config
  serve      Run the coordination daemon (sweeps, reaping, hot-reload)

Messaging:
  post       Post a message to a room
  messages   Read a room's messages (optionally --follow)
  clear      Delete all messages in a room
  route      Classify a task, pick its room, post the assignment

Agents:
  register   Register an agent with its capability profile
  heartbeat  Refresh an agent's liveness
  agents     List agents and their derived status
  match      Rank active agents for a task description
  analyze    Classify a task description without posting

Coordination:
  deps       Declare, inspect, and abandon dependency waits

Memory:
  remember   Store a memory for an agent
  recall     Load a memory (touches its utility score)
  memories   Browse stored memories by agent or utility

Monitoring:
  status     Show bus state at a glance
  dash       Launch the interactive dashboard

Use "agora <command> --help" for detailed usage of any command.
`

// newHelpCmd creates the "agora help" subcommand that displays a categorized
// overview. When called with an argument (e.g. "agora help post"), it falls
// through to cobra's built-in per-command help.
func newHelpCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Show categorized command overview",
		Long:  "Displays a categorized overview of all agora subcommands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), helpText)
				return nil
			}

			// Fall through to cobra's per-command help.
			target, _, err := root.Find(args)
			if err != nil || target == nil || target == root {
				return fmt.Errorf("unknown command %q", args[0])
			}
			return target.Help()
		},
	}
}
