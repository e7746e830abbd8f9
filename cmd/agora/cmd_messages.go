package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"agora/pkg/protocol"
	"agora/pkg/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// messagesConfig holds flag values for the messages command.
type messagesConfig struct {
	sender string
	kind   string
	taskID string
	target string
	limit  int
	follow bool
}

// newMessagesCmd creates the "agora messages" subcommand.
func newMessagesCmd() *cobra.Command {
	var cfg messagesConfig

	cmd := &cobra.Command{
		Use:   "messages <room>",
		Short: "Read a room's messages",
		Long:  "Prints a room's messages in insertion order. An unknown room prints\nnothing. With --follow, keeps printing as new messages arrive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := args[0]

			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			f := store.Filter{
				Sender: cfg.sender,
				Kind:   cfg.kind,
				TaskID: cfg.taskID,
				Target: cfg.target,
				Limit:  cfg.limit,
			}

			msgs, err := s.Read(cmd.Context(), room, f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			styles := newMessageStyles()
			for _, m := range msgs {
				printMessage(w, styles, m)
			}

			if !cfg.follow {
				return nil
			}
			return followRoom(cmd, s, room, f, lastSeq(msgs))
		},
	}

	cmd.Flags().StringVar(&cfg.sender, "sender", "", "filter by sending agent")
	cmd.Flags().StringVar(&cfg.kind, "kind", "", "filter by event kind")
	cmd.Flags().StringVar(&cfg.taskID, "task", "", "filter by task id")
	cmd.Flags().StringVar(&cfg.target, "target", "", "filter by target agent")
	cmd.Flags().IntVar(&cfg.limit, "limit", 0, "show only the most recent N")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "keep printing new messages")

	return cmd
}

// followRoom prints messages appended after seq until the context ends.
func followRoom(cmd *cobra.Command, s *store.Store, room string, f store.Filter, seq int64) error {
	sub := s.Subscribe(room)
	defer sub.Cancel()

	w := cmd.OutOrStdout()
	styles := newMessageStyles()
	f.Limit = 0

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			msgs, err := s.Read(cmd.Context(), room, f)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				if m.Seq > seq {
					printMessage(w, styles, m)
					seq = m.Seq
				}
			}
		}
	}
}

func lastSeq(msgs []protocol.Message) int64 {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].Seq
}

// messageStyles colors terminal output; all styles are identity when stdout
// is not a tty.
type messageStyles struct {
	ts     lipgloss.Style
	sender lipgloss.Style
	kind   lipgloss.Style
}

func newMessageStyles() messageStyles {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return messageStyles{}
	}
	return messageStyles{
		ts:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		sender: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		kind:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// printMessage writes one message line: timestamp | sender | kind | body.
func printMessage(w io.Writer, st messageStyles, m protocol.Message) {
	ts := time.UnixMilli(m.Timestamp).Format("15:04:05")
	sender := m.Sender
	if sender == "" {
		sender = "-"
	}

	line := fmt.Sprintf("%s  %-14s", st.ts.Render(ts), st.sender.Render(sender))
	if m.Context.Kind != "" {
		line += fmt.Sprintf(" [%s]", st.kind.Render(m.Context.Kind))
	}
	if m.Context.Target != "" {
		line += fmt.Sprintf(" @%s", m.Context.Target)
	}
	fmt.Fprintf(w, "%s %s\n", line, m.Body)
}
