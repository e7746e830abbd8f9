package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"agora/pkg/bus"

	"github.com/spf13/cobra"
)

// matchConfig holds flag values for the match command.
type matchConfig struct {
	step         int
	capabilities []string
	asJSON       bool
}

// newMatchCmd creates the "agora match" subcommand.
func newMatchCmd() *cobra.Command {
	var cfg matchConfig

	cmd := &cobra.Command{
		Use:   "match <description...>",
		Short: "Rank active agents for a task",
		Long:  "Analyzes the description and scores every active agent against it.\nEach candidate comes with the reasons behind its score. An empty result\nis normal, not an error; the diagnostic says why.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := b.FindAgentsForTask(cmd.Context(), description, bus.Requirements{
				ActiveStep:        cfg.step,
				ExtraCapabilities: cfg.capabilities,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if cfg.asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if result.Diagnostic != "" {
				fmt.Fprintf(w, "no match: %s\n", result.Diagnostic)
			}
			for i, c := range result.Candidates {
				fmt.Fprintf(w, "%d. %s (%.1f)\n", i+1, c.AgentID, c.Score)
				for _, reason := range c.Reasons {
					fmt.Fprintf(w, "   - %s\n", reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.step, "step", 0, "active pipeline step")
	cmd.Flags().StringSliceVar(&cfg.capabilities, "cap", nil, "additional required capability (repeatable)")
	cmd.Flags().BoolVar(&cfg.asJSON, "json", false, "emit the result as JSON")

	return cmd
}
