// Package main implements the agora-dash interactive dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// robotMode outputs a JSON snapshot of the bus state for scripts that want
// the dashboard's data without the TUI.
func robotMode(snap Snapshot) ([]byte, error) {
	out := map[string]any{
		"rooms":   snap.Rooms,
		"agents":  snap.Agents,
		"pending": snap.Pending,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func main() {
	dbPath := defaultDBPath()

	if len(os.Args) > 1 && os.Args[1] == "--robot" {
		snap, err := fetchSnapshot(context.Background(), dbPath, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading bus state: %v\n", err)
			os.Exit(1)
		}
		data, err := robotMode(snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	p := tea.NewProgram(newModel(dbPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
