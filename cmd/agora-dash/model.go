package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"agora/pkg/config"
)

// tickMsg is sent by Bubble Tea on every tick interval.
// Used to trigger periodic refresh from the coordination database.
type tickMsg time.Time

// snapshotMsg carries one refresh of the database. nil means the database
// was unreachable (daemon not initialized or file missing).
type snapshotMsg *Snapshot

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd returns a tea.Cmd that reads a fresh Snapshot.
func fetchCmd(dbPath, room string) tea.Cmd {
	return func() tea.Msg {
		snap, err := fetchSnapshot(context.Background(), dbPath, room)
		if err != nil {
			return snapshotMsg(nil)
		}
		return snapshotMsg(&snap)
	}
}

// ViewType represents different views in the dashboard.
type ViewType int

const (
	// RoomsView lists every room with its traffic.
	RoomsView ViewType = iota
	// StreamView shows one room's message log.
	StreamView
	// AgentsView shows the registration table.
	AgentsView
	// DepsView shows the pending dependency queue.
	DepsView
)

// Model is the Bubble Tea model for the agora dashboard.
type Model struct {
	activeView  ViewType
	dbPath      string
	dbReachable bool

	// Data fetched from the coordination database
	rooms    []string
	roomRows map[string]roomRow
	agents   []agentRow
	pending  []depRow
	stream   streamModel

	// UI state
	width      int
	height     int
	activeRoom int // index into rooms for cursor and stream selection
}

// newModel creates a new Model initialized with RoomsView active.
func newModel(dbPath string) Model {
	return Model{
		activeView: RoomsView,
		dbPath:     dbPath,
		roomRows:   map[string]roomRow{},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.dbPath, m.streamRoom()), tickCmd(), watchStateDir(m.dbPath))
}

// streamRoom returns the room the stream view is pinned to, or "" when no
// room is selected yet.
func (m Model) streamRoom() string {
	if len(m.rooms) == 0 || m.activeRoom >= len(m.rooms) {
		return ""
	}
	return m.rooms[m.activeRoom]
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m = m.applySnapshot((*Snapshot)(msg))

	case tickMsg:
		return m, tea.Batch(fetchCmd(m.dbPath, m.streamRoom()), tickCmd())

	case fsChangeMsg:
		// Refresh immediately, then resume watching.
		return m, tea.Batch(fetchCmd(m.dbPath, m.streamRoom()), watchStateDir(m.dbPath))
	}

	return m, nil
}

// applySnapshot folds one database read into the display state.
func (m Model) applySnapshot(snap *Snapshot) Model {
	if snap == nil {
		m.dbReachable = false
		return m
	}
	m.dbReachable = true

	m.rooms = m.rooms[:0]
	m.roomRows = make(map[string]roomRow, len(snap.Rooms))
	for _, ra := range snap.Rooms {
		m.rooms = append(m.rooms, ra.Room)
		m.roomRows[ra.Room] = roomRow{
			messages: ra.Messages,
			lastSeen: time.UnixMilli(ra.LastSeen),
		}
	}
	if m.activeRoom >= len(m.rooms) {
		m.activeRoom = 0
	}

	m.agents = buildAgentRows(snap.Agents, time.Now(), config.Config{}.WithDefaults().LivenessWindow.Std())
	m.pending = buildDepRows(snap.Pending)
	m.stream = newStreamModel(m.streamRoom(), snap.Messages)
	return m
}

// handleKeyPress processes keyboard input and returns updated model with optional command.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	switch m.activeView {
	case StreamView, AgentsView, DepsView:
		if key == "esc" || key == "backspace" {
			m.activeView = RoomsView
		}
		return m, nil
	default:
		return m.handleRoomsViewKeys(key)
	}
}

// handleRoomsViewKeys processes keyboard input in RoomsView.
func (m Model) handleRoomsViewKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if m.activeRoom < len(m.rooms)-1 {
			m.activeRoom++
		}
	case "k", "up":
		if m.activeRoom > 0 {
			m.activeRoom--
		}
	case "enter":
		if len(m.rooms) > 0 {
			m.activeView = StreamView
			return m, fetchCmd(m.dbPath, m.streamRoom())
		}
	case "a":
		m.activeView = AgentsView
	case "d":
		m.activeView = DepsView
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	statusBar := m.renderStatusBar()

	switch m.activeView {
	case StreamView:
		return statusBar + "\n" + m.stream.View(DefaultTheme())
	case AgentsView:
		return statusBar + "\n" + renderAgentsTable(m.agents, DefaultTheme())
	case DepsView:
		return statusBar + "\n" + renderDepsTable(m.pending, DefaultTheme())
	default:
		return statusBar + "\n" + m.renderRoomList()
	}
}

// renderStatusBar renders the status bar with database health, agent count,
// room count, and the pending dependency backlog.
func (m Model) renderStatusBar() string {
	theme := DefaultTheme()

	var dbStatus string
	if m.dbReachable {
		dbStatus = lipgloss.NewStyle().Foreground(theme.Success).Render("bus: online")
	} else {
		dbStatus = lipgloss.NewStyle().Foreground(theme.Error).Render("bus: offline")
	}

	active := 0
	for _, a := range m.agents {
		if a.status == "active" {
			active++
		}
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		dbStatus,
		lipgloss.NewStyle().Render(" | Agents: "),
		lipgloss.NewStyle().Foreground(theme.Primary).Render(fmt.Sprintf("%d/%d", active, len(m.agents))),
		lipgloss.NewStyle().Render(" | Rooms: "),
		lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("%d", len(m.rooms))),
		lipgloss.NewStyle().Render(" | Waiting: "),
		lipgloss.NewStyle().Foreground(theme.Warning).Render(fmt.Sprintf("%d", len(m.pending))),
	)
}

// renderRoomList renders the room list with the cursor row highlighted.
func (m Model) renderRoomList() string {
	theme := DefaultTheme()

	if len(m.rooms) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Muted).Padding(1, 1).Render("No rooms yet")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(1, 0, 0, 1)
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	cursorStyle := rowStyle.Foreground(theme.Secondary).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(theme.Muted)

	out := titleStyle.Render("Rooms") + "\n"
	for i, room := range m.rooms {
		row := m.roomRows[room]
		line := fmt.Sprintf("%-28s %5d msg  %s",
			room, row.messages, mutedStyle.Render(row.lastSeen.Format("15:04:05")))
		if i == m.activeRoom {
			out += cursorStyle.Render("> "+line) + "\n"
		} else {
			out += rowStyle.Render("  "+line) + "\n"
		}
	}
	out += "\n" + mutedStyle.Render("enter stream  a agents  d deps  q quit")
	return out
}

// roomRow is one line of the room list.
type roomRow struct {
	messages int
	lastSeen time.Time
}
