package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"agora/pkg/protocol"
)

// streamModel holds one room's message log, oldest first, ready to render.
type streamModel struct {
	room     string
	messages []protocol.Message
}

// newStreamModel reverses the newest-first query result so the log reads
// top to bottom like a transcript.
func newStreamModel(room string, newestFirst []protocol.Message) streamModel {
	msgs := make([]protocol.Message, len(newestFirst))
	for i, m := range newestFirst {
		msgs[len(newestFirst)-1-i] = m
	}
	return streamModel{room: room, messages: msgs}
}

// View renders the message log for the pinned room.
func (sm streamModel) View(theme Theme) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(1, 0, 0, 1)
	tsStyle := lipgloss.NewStyle().Foreground(theme.Muted)
	senderStyle := lipgloss.NewStyle().Foreground(theme.Secondary)
	kindStyle := lipgloss.NewStyle().Foreground(theme.Warning)
	mutedStyle := lipgloss.NewStyle().Foreground(theme.Muted)

	if sm.room == "" {
		return mutedStyle.Padding(1, 1).Render("No room selected")
	}

	out := titleStyle.Render("# "+sm.room) + "\n"
	if len(sm.messages) == 0 {
		return out + mutedStyle.Padding(0, 1).Render("No messages")
	}

	for _, m := range sm.messages {
		ts := tsStyle.Render(time.UnixMilli(m.Timestamp).Format("15:04:05"))
		sender := senderStyle.Render(orDash(m.Sender))
		line := fmt.Sprintf(" %s %s", ts, sender)
		if m.Context.Kind != "" {
			line += " " + kindStyle.Render("["+m.Context.Kind+"]")
		}
		out += line + " " + m.Body + "\n"
	}
	out += "\n" + mutedStyle.Render("esc back  q quit")
	return out
}
