package main

import (
	"fmt"

	"agora/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root agora command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agora",
		Short:         "Agora multi-agent message bus",
		Long:          "agora is the coordination bus for a multi-agent workspace.\nIt stores room messages durably, routes tasks, and gates handoff on dependencies.",
		Version:       fmt.Sprintf("agora %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newPostCmd(),
		newMessagesCmd(),
		newRegisterCmd(),
		newHeartbeatCmd(),
		newAgentsCmd(),
		newAnalyzeCmd(),
		newMatchCmd(),
		newRouteCmd(),
		newDepsCmd(),
		newRememberCmd(),
		newRecallCmd(),
		newMemoriesCmd(),
		newClearCmd(),
		newStatusCmd(),
		newDashCmd(),
		newHelpCmd(cmd),
	)

	return cmd
}
