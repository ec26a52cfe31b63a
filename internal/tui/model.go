// Package tui is the interactive budget dashboard: per-category utilization
// for a period, switchable between the standard reporting periods.
package tui

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chromeHeight is the number of lines around the budget table.
const chromeHeight = 14

// Model holds the dashboard state.
type Model struct {
	ctx       context.Context
	theme     themes.Theme
	lastError error
	load      Loader
	money     cli.Money
	keymap    KeyMap
	help      help.Model
	budgets   table.Model
	usage     progress.Model
	periods   []period.Kind
	summary   report.Summary
	width     int
	height    int
	current   int
	seq       int
	loading   bool
	ready     bool
	quitting  bool
}

// New creates the dashboard model. A loader is required.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Loader == nil {
		return Model{}, errors.New("dashboard loader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	periods := slices.DeleteFunc(period.Kinds(), func(k period.Kind) bool { return k == period.Custom })
	current := max(0, slices.Index(periods, cfg.Period))

	usage := progress.New(progress.WithDefaultGradient())
	usage.ShowPercentage = false

	m := Model{
		ctx:     ctx,
		theme:   cfg.Theme,
		load:    cfg.Loader,
		money:   cfg.Money,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		usage:   usage,
		periods: periods,
		current: current,
		width:   cfg.Width,
		height:  cfg.Height,
		loading: true,
		budgets: table.New(
			table.WithColumns(budgetColumns(cfg.Width)),
			table.WithFocused(true),
		),
	}
	m.budgets.SetStyles(tableStyles(cfg.Theme))
	m.resize()
	return m, nil
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return m.loadSummary()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case summaryLoadedMsg:
		if msg.seq != m.seq || msg.kind != m.currentPeriod() {
			return m, nil
		}
		m.loading = false
		m.ready = true
		m.lastError = msg.err
		if msg.err == nil {
			m.summary = msg.summary
			m.budgets.SetRows(m.budgetRows())
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.NextPeriod):
			return m.switchPeriod(1)
		case key.Matches(msg, m.keymap.PrevPeriod):
			return m.switchPeriod(-1)
		case key.Matches(msg, m.keymap.Refresh):
			return m.reload()
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.budgets, cmd = m.budgets.Update(msg)
	return m, cmd
}

// currentPeriod returns the period on screen.
func (m Model) currentPeriod() period.Kind {
	return m.periods[m.current]
}

func (m Model) switchPeriod(step int) (tea.Model, tea.Cmd) {
	n := len(m.periods)
	m.current = ((m.current+step)%n + n) % n
	return m.reload()
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.loadSummary()
}

func (m *Model) resize() {
	m.budgets.SetColumns(budgetColumns(m.width))
	m.budgets.SetWidth(max(m.width-4, 20))

	reserved := chromeHeight + len(m.summary.OverBudgetCategories)
	if m.help.ShowAll {
		reserved += 3
	}
	m.budgets.SetHeight(max(m.height-reserved, 3))

	m.usage.Width = min(max(m.width-30, 10), 60)
	m.help.Width = m.width
}

// budgetColumns splits the width between the fixed numeric columns and the
// category name.
func budgetColumns(width int) []table.Column {
	amount := 14
	used := 8
	bar := 12
	name := max(width-4-2*amount-used-bar-10, 10)
	return []table.Column{
		{Title: "Category", Width: name},
		{Title: "Budget", Width: amount},
		{Title: "Spent", Width: amount},
		{Title: "Used", Width: used},
		{Title: "", Width: bar},
	}
}

func (m Model) budgetRows() []table.Row {
	rows := make([]table.Row, 0, len(m.summary.BudgetUtilization))
	for _, u := range m.summary.BudgetUtilization {
		used := strconv.FormatFloat(u.Percent, 'f', 1, 64) + "%"
		if u.OverBudget {
			used += "!"
		}
		rows = append(rows, table.Row{
			u.Category,
			m.money.Format(u.Budget),
			m.money.Format(u.Spent),
			used,
			cli.UsageBar(u.Percent, 10),
		})
	}
	return rows
}

func tableStyles(theme themes.Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	return s
}
