package main

import (
	"fmt"
	"os"

	"agora/pkg/protocol"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// registerConfig holds flag values for the register command.
type registerConfig struct {
	capabilities    []string
	specializations []string
	taskAffinities  []string
	stepAffinities  []int
	dependsOn       []string
	role            string
	profileFile     string
}

// newRegisterCmd creates the "agora register" subcommand.
func newRegisterCmd() *cobra.Command {
	var cfg registerConfig

	cmd := &cobra.Command{
		Use:   "register <agent-id>",
		Short: "Register an agent with its capability profile",
		Long:  "Registers (or re-registers) an agent. The profile comes from flags or\na YAML file; re-registration replaces the profile and refreshes liveness\nwhile keeping the original registration time.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]

			profile, err := cfg.profile()
			if err != nil {
				return err
			}

			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			reg, err := b.RegisterAgent(cmd.Context(), agentID, profile)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %s with %d capabilities\n",
				reg.AgentID, len(reg.Profile.Capabilities))

			result, err := b.Registry().ValidateDependencies(cmd.Context(), agentID)
			if err != nil {
				return err
			}
			if !result.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: depends on unregistered agents: %v\n", result.Missing)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&cfg.capabilities, "cap", nil, "capability tag (repeatable)")
	cmd.Flags().StringSliceVar(&cfg.specializations, "spec", nil, "specialization tag (repeatable)")
	cmd.Flags().StringSliceVar(&cfg.taskAffinities, "affinity", nil, "task type or complexity tier affinity (repeatable)")
	cmd.Flags().IntSliceVar(&cfg.stepAffinities, "step", nil, "pipeline step affinity (repeatable)")
	cmd.Flags().StringSliceVar(&cfg.dependsOn, "depends-on", nil, "agent this one coordinates with (repeatable)")
	cmd.Flags().StringVar(&cfg.role, "role", "", "declared role (architect, coder, tester, ...)")
	cmd.Flags().StringVar(&cfg.profileFile, "profile", "", "YAML profile file (overrides profile flags)")

	return cmd
}

// profile builds the registration profile from the file or the flags.
func (c registerConfig) profile() (protocol.Profile, error) {
	if c.profileFile == "" {
		return protocol.Profile{
			Capabilities:    c.capabilities,
			Specializations: c.specializations,
			TaskAffinities:  c.taskAffinities,
			StepAffinities:  c.stepAffinities,
			DependsOn:       c.dependsOn,
			Role:            c.role,
		}, nil
	}

	data, err := os.ReadFile(c.profileFile)
	if err != nil {
		return protocol.Profile{}, fmt.Errorf("read profile %s: %w", c.profileFile, err)
	}
	var p protocol.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return protocol.Profile{}, fmt.Errorf("parse profile %s: %w", c.profileFile, err)
	}
	return p, nil
}
