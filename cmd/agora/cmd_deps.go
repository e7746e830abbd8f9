package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agora/pkg/protocol"

	"github.com/spf13/cobra"
)

// newDepsCmd creates the "agora deps" command group.
func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Declare and inspect coordination dependencies",
		Long:  "Manages dependency-gated handoff: declare what an agent is waiting on,\ncheck or abandon waits, and detect circular wait chains.",
	}

	cmd.AddCommand(
		newDepsAddCmd(),
		newDepsCheckCmd(),
		newDepsListCmd(),
		newDepsDropCmd(),
		newDepsCycleCmd(),
	)
	return cmd
}

// newDepsAddCmd creates "agora deps add".
func newDepsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <agent-id> <kind> <target>",
		Short: "Declare a dependency for an agent",
		Long: "Declares a precondition the agent is waiting on. Kinds:\n" +
			"  task-complete      target is a task id or room\n" +
			"  phase-complete     target is a phase name\n" +
			"  resource-exists    target is a filesystem path\n" +
			"  context-available  target is agent-id:memory-type\n" +
			"  agent-ready        target is an agent id\n" +
			"A condition that already holds is satisfied immediately.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			dep, err := b.RegisterDependency(cmd.Context(), args[0], protocol.DependencyKind(args[1]), args[2])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dependency %d: %s\n", dep.ID, dep.Status)
			return nil
		},
	}
}

// newDepsCheckCmd creates "agora deps check".
func newDepsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Show the state of a dependency record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid dependency id %q", args[0])
			}

			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			dep, err := b.CheckDependency(cmd.Context(), id)
			if err != nil {
				return err
			}
			printDependency(cmd, dep)
			return nil
		},
	}
}

// newDepsListCmd creates "agora deps list".
func newDepsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <agent-id>",
		Short: "List an agent's dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			deps, err := s.DependenciesFor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(deps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no dependencies")
				return nil
			}
			for _, dep := range deps {
				printDependency(cmd, dep)
			}
			return nil
		},
	}
}

// newDepsDropCmd creates "agora deps drop".
func newDepsDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <agent-id>",
		Short: "Abandon an agent's pending dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := b.Coordinator().Deregister(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %d pending dependencies\n", n)
			return nil
		},
	}
}

// newDepsCycleCmd creates "agora deps cycle".
func newDepsCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <agent-id>",
		Short: "Detect a circular wait starting from an agent",
		Long:  "Walks the blocked-by graph from the agent. A detected cycle is printed\nand recorded as a critical event; it is never silently broken.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, s, err := openBus()
			if err != nil {
				return err
			}
			defer s.Close()

			cycle, err := b.Coordinator().DetectCircularWait(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cycle == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no circular wait")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "circular wait: %s\n", strings.Join(cycle, " -> "))
			return nil
		},
	}
}

func printDependency(cmd *cobra.Command, dep protocol.Dependency) {
	line := fmt.Sprintf("%d: %s waits on %s %s [%s]",
		dep.ID, dep.WaitingAgent, dep.Kind, dep.Target, dep.Status)
	if dep.SatisfiedAt != 0 {
		line += " at " + time.UnixMilli(dep.SatisfiedAt).Format(time.RFC3339)
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
