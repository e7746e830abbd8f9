package main

import (
	"fmt"
	"strings"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/store"

	"github.com/spf13/cobra"
)

// memoryScopeFlags holds the optional step/phase scoping shared by the
// memory commands.
type memoryScopeFlags struct {
	step  int
	phase string
}

func (f *memoryScopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.step, "step", 0, "scope to a pipeline step")
	cmd.Flags().StringVar(&f.phase, "phase", "", "scope to a phase")
}

func (f memoryScopeFlags) scope() store.MemoryScope {
	return store.MemoryScope{Step: f.step, Phase: f.phase}
}

// newRememberCmd creates the "agora remember" subcommand.
func newRememberCmd() *cobra.Command {
	var scope memoryScopeFlags

	cmd := &cobra.Command{
		Use:   "remember <agent-id> <type> <content...>",
		Short: "Store a memory for an agent",
		Long:  "Stores content under (agent, type) with optional step/phase scoping.\nWriting the same key again replaces the content.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			content := strings.Join(args[2:], " ")
			if err := s.SaveMemory(cmd.Context(), args[0], args[1], content, scope.scope()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "remembered %s/%s\n", args[0], args[1])
			return nil
		},
	}

	scope.register(cmd)
	return cmd
}

// newRecallCmd creates the "agora recall" subcommand.
func newRecallCmd() *cobra.Command {
	var scope memoryScopeFlags

	cmd := &cobra.Command{
		Use:   "recall <agent-id> <type>",
		Short: "Load a memory",
		Long:  "Prints the stored content for (agent, type). Reading touches the\nmemory's access time and nudges its utility score up.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, ok, err := s.LoadMemory(cmd.Context(), args[0], args[1], scope.scope())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no such memory")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.Content)
			return nil
		},
	}

	scope.register(cmd)
	return cmd
}

// newMemoriesCmd creates the "agora memories" subcommand.
func newMemoriesCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "memories [agent-id]",
		Short: "Browse stored memories",
		Long:  "Without an argument, lists the highest-utility memories across all\nagents (recency-decayed). With an agent-id, lists that agent's memories.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var list []protocol.MemoryRecord
			if len(args) == 1 {
				list, err = s.ListMemories(cmd.Context(), args[0])
			} else {
				list, err = s.TopMemories(cmd.Context(), top)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "no memories")
				return nil
			}
			for _, m := range list {
				fmt.Fprintln(w, formatMemory(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 20, "number of memories to show across agents")
	return cmd
}

// formatMemory renders one memory row: key, utility, last access, content.
func formatMemory(m protocol.MemoryRecord) string {
	key := m.AgentID + "/" + m.MemoryType
	if m.Step != 0 {
		key += fmt.Sprintf("@step%d", m.Step)
	}
	if m.Phase != "" {
		key += "@" + m.Phase
	}
	return fmt.Sprintf("%-40s %.2f  %s  %s",
		key, m.UtilityScore,
		time.UnixMilli(m.LastAccessed).Format("2006-01-02"),
		truncate(m.Content, 60))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
