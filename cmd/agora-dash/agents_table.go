package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"agora/pkg/protocol"
)

// agentRow is one display row of the registration table.
type agentRow struct {
	id       string
	status   string
	role     string
	caps     string
	lastSeen time.Time
}

// buildAgentRows derives display rows from raw registrations. Status is
// computed against the same liveness window the daemon uses.
func buildAgentRows(regs []protocol.Registration, now time.Time, window time.Duration) []agentRow {
	rows := make([]agentRow, 0, len(regs))
	for _, reg := range regs {
		rows = append(rows, agentRow{
			id:       reg.AgentID,
			status:   string(reg.Status(now, window)),
			role:     reg.Profile.Role,
			caps:     strings.Join(reg.Profile.Capabilities, ","),
			lastSeen: time.UnixMilli(reg.LastSeen),
		})
	}
	return rows
}

// newAgentsTable builds the bubbles table for the registration view.
func newAgentsTable(agents []agentRow, theme Theme) table.Model {
	columns := []table.Column{
		{Title: "Agent ID", Width: 20},
		{Title: "Status", Width: 10},
		{Title: "Role", Width: 14},
		{Title: "Capabilities", Width: 28},
		{Title: "Last Seen", Width: 10},
	}

	rows := make([]table.Row, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, table.Row{
			a.id,
			a.status,
			orDash(a.role),
			orDash(a.caps),
			a.lastSeen.Format("15:04:05"),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(theme.Primary)
	s.Selected = s.Selected.Foreground(theme.Secondary).Bold(true)
	t.SetStyles(s)
	return t
}

// renderAgentsTable renders the registration table.
func renderAgentsTable(agents []agentRow, theme Theme) string {
	if len(agents) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Padding(1, 1).Render("No registered agents")
	}
	return newAgentsTable(agents, theme).View()
}

// depRow is one display row of the pending dependency queue.
type depRow struct {
	id      int64
	waiter  string
	kind    string
	target  string
	created time.Time
}

func buildDepRows(deps []protocol.Dependency) []depRow {
	rows := make([]depRow, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, depRow{
			id:      d.ID,
			waiter:  d.WaitingAgent,
			kind:    string(d.Kind),
			target:  d.Target,
			created: time.UnixMilli(d.CreatedAt),
		})
	}
	return rows
}

// renderDepsTable renders the pending dependency queue, oldest first.
func renderDepsTable(deps []depRow, theme Theme) string {
	if len(deps) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Padding(1, 1).Render("No pending dependencies")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(1, 0, 0, 1)
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	mutedStyle := lipgloss.NewStyle().Foreground(theme.Muted)

	out := titleStyle.Render("Pending dependencies") + "\n"
	for _, d := range deps {
		line := fmt.Sprintf("#%-4d %-20s waits on %-18s %s  %s",
			d.id, truncate(d.waiter, 20), d.kind, d.target,
			mutedStyle.Render("since "+d.created.Format("15:04:05")))
		out += rowStyle.Render(line) + "\n"
	}
	return out
}

// truncate shortens s to max characters, appending "…" when cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
