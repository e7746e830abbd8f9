package main

import (
	"fmt"
	"os"

	"agora/pkg/config"
	"agora/pkg/store"

	"github.com/spf13/cobra"
)

// newInitCmd creates the "agora init" subcommand.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the state directory, database, and default config",
		Long:  "Creates ~/.agora (or AGORA_HOME), initializes the coordination database\nschema, and writes a default config.toml if one does not exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			if err := os.MkdirAll(paths.AgoraHome, 0o755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}

			if _, err := os.Stat(paths.ConfigPath); os.IsNotExist(err) || force {
				cfg := config.Config{DBPath: paths.DBPath}.WithDefaults()
				if err := config.Save(paths.ConfigPath, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", paths.ConfigPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "config exists at %s (use --force to overwrite)\n", paths.ConfigPath)
			}

			s, err := store.Open(paths.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s\n", paths.DBPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
