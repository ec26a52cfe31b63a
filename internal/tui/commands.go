package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const loadTimeout = 30 * time.Second

// loadSummary asks the loader for the current period.
func (m Model) loadSummary() tea.Cmd {
	kind, seq, load, parent := m.currentPeriod(), m.seq, m.load, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, loadTimeout)
		defer cancel()

		summary, err := load(ctx, kind)
		return summaryLoadedMsg{kind: kind, seq: seq, summary: summary, err: err}
	}
}
