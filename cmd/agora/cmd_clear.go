package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newClearCmd creates the "agora clear" subcommand.
func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <room>",
		Short: "Delete all messages in a room",
		Long:  "Deletes a room's messages. Clearing is the only way messages leave a\nroom besides retention purging; posted messages are never edited.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.ClearRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d messages from %s\n", n, args[0])
			return nil
		},
	}
}
