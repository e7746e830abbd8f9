package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"agora/pkg/analyzer"

	"github.com/spf13/cobra"
)

// newAnalyzeCmd creates the "agora analyze" subcommand.
func newAnalyzeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <description...>",
		Short: "Classify a task description",
		Long:  "Derives complexity, categories with confidence, required capabilities,\nand a duration estimate from a free-text task description. Analysis is\ntable-driven and never fails; unrecognized text gets the default profile.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			anCfg, err := analyzer.LoadConfig(cfg.AnalyzerTablePath)
			if err != nil {
				return err
			}
			an, err := analyzer.New(anCfg)
			if err != nil {
				return err
			}

			profile := an.Analyze(description)
			w := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(profile)
			}

			fmt.Fprintf(w, "complexity:   %s\n", profile.Complexity)
			for _, c := range profile.Categories {
				fmt.Fprintf(w, "category:     %s (%.2f)\n", c.Tag, c.Confidence)
			}
			if len(profile.RequiredCapabilities) > 0 {
				fmt.Fprintf(w, "capabilities: %s\n", strings.Join(profile.RequiredCapabilities, ", "))
			}
			if len(profile.Prerequisites) > 0 {
				fmt.Fprintf(w, "prereqs:      %s\n", strings.Join(profile.Prerequisites, ", "))
			}
			fmt.Fprintf(w, "estimate:     %dm\n", profile.EstimatedDurationMinutes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the profile as JSON")
	return cmd
}
