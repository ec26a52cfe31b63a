package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}

	switch {
	case !m.ready:
		sections = append(sections, m.theme.Muted.Render("Loading..."))
	case m.lastError != nil:
		sections = append(sections, m.theme.StatusError.Render(cli.ErrorIcon+" "+m.lastError.Error()))
	default:
		sections = append(sections, m.renderOverview(), m.renderBudgets())
		if warnings := m.renderWarnings(); warnings != "" {
			sections = append(sections, warnings)
		}
	}

	sections = append(sections, m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the title and the period tabs.
func (m Model) renderHeader() string {
	title := m.theme.Title.Render(cli.LedgerIcon + " Budget dashboard")
	if m.ready && m.lastError == nil {
		title += "  " + m.theme.Subtitle.Render(m.summary.Period.Label())
	}
	if m.loading && m.ready {
		title += "  " + m.theme.Muted.Render("refreshing...")
	}

	tabs := make([]string, 0, len(m.periods))
	for i, k := range m.periods {
		style := m.theme.Tab
		if i == m.current {
			style = m.theme.ActiveTab
		}
		tabs = append(tabs, style.Render(string(k)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), "")
}

// renderOverview shows the period totals and overall budget usage.
func (m Model) renderOverview() string {
	s := m.summary
	lines := []string{
		fmt.Sprintf("Total spent      %s", m.theme.Bold.Render(m.money.Format(s.TotalAmount))),
		fmt.Sprintf("Transactions     %d", s.TransactionCount),
		fmt.Sprintf("Daily average    %s", m.money.Format(s.DailyAverage)),
	}
	if s.HasComparison {
		change := strconv.FormatFloat(s.ChangePercent, 'f', 1, 64) + "%"
		if s.ChangePercent > 0 {
			change = "+" + change
		}
		lines = append(lines, fmt.Sprintf("vs previous      %s (%s)", m.money.Format(s.PreviousTotal), change))
	}
	if s.TotalBudget.IsPositive() {
		pct := s.TotalBudgetUtilization
		lines = append(lines, fmt.Sprintf("Budget used      %s %s",
			m.usage.ViewAs(min(pct/100, 1)),
			m.theme.Usage(pct).Render(fmt.Sprintf("%.1f%% of %s", pct, m.money.Format(s.TotalBudget)))))
	}
	return m.theme.RoundedBox.Render(strings.Join(lines, "\n"))
}

// renderBudgets shows the per-category table.
func (m Model) renderBudgets() string {
	if len(m.summary.BudgetUtilization) == 0 {
		return m.theme.Muted.Render("No category has a budget. Set one with `ledger categories budget`.")
	}
	return m.budgets.View()
}

// renderWarnings lists the categories over their ceiling.
func (m Model) renderWarnings() string {
	lines := make([]string, 0, len(m.summary.OverBudgetCategories))
	for _, o := range m.summary.OverBudgetCategories {
		lines = append(lines, m.theme.StatusError.Render(fmt.Sprintf("%s %s over by %s (%.1f%%)",
			cli.WarningIcon, o.Category, m.money.Format(o.Amount), o.Percent)))
	}
	return strings.Join(lines, "\n")
}
