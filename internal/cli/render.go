package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

const usageBarWidth = 20

// Money formats amounts in the configured currency.
type Money struct {
	Symbol   string
	Decimals int32
}

// Format renders d with a currency symbol, thousands separators and a
// fixed number of decimals.
func (m Money) Format(d decimal.Decimal) string {
	s := d.StringFixed(m.Decimals)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString("." + frac)
	}
	return sign + m.Symbol + b.String()
}

// UsageBar draws a fixed-width bar for a utilization percentage, capped at
// a full bar.
func UsageBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

func pct(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// RenderExpenses prints records as a table in export column order.
func RenderExpenses(w io.Writer, records []model.Expense, money Money) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No expenses recorded in this period."))
		return err
	}

	t := newTable(export.Columns...)
	total := decimal.Zero
	for _, r := range export.ToFlatTable(records) {
		cells := r.Strings()
		cells[4] = money.Format(r.Amount)
		t.Row(cells...)
		total = total.Add(r.Amount)
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(),
		SubtitleStyle.Render(fmt.Sprintf("%d expenses, %s total", len(records), money.Format(total))))
	return err
}

// RenderCategories prints categories with their budgets.
func RenderCategories(w io.Writer, categories []model.Category, money Money) error {
	t := newTable("ID", "Name", "Budget")
	for _, c := range categories {
		budget := SubtleStyle.Render("none")
		if c.Budget.IsPositive() {
			budget = money.Format(c.Budget)
		}
		t.Row(strconv.FormatInt(c.ID, 10), c.Name, budget)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderReport prints the summary for one period.
func RenderReport(w io.Writer, s report.Summary, money Money) error {
	var sections []string

	sections = append(sections, FormatTitle("Expense report "+s.Period.Label()))

	overview := []string{
		fmt.Sprintf("Total spent       %s", BoldStyle.Render(money.Format(s.TotalAmount))),
		fmt.Sprintf("Transactions      %d", s.TransactionCount),
		fmt.Sprintf("Daily average     %s", money.Format(s.DailyAverage)),
		fmt.Sprintf("Per transaction   %s", money.Format(s.AveragePerTransaction)),
	}
	if s.HasComparison {
		change := pct(s.ChangePercent)
		if s.ChangePercent > 0 {
			change = "+" + change
		}
		overview = append(overview, fmt.Sprintf("Previous period   %s (%s)", money.Format(s.PreviousTotal), change))
	}
	if s.Fixed.FixedCount > 0 {
		overview = append(overview, fmt.Sprintf("Fixed / variable  %s / %s", money.Format(s.Fixed.Fixed), money.Format(s.Fixed.Variable)))
	}
	sections = append(sections, RenderBox("Overview", strings.Join(overview, "\n")))

	if len(s.BudgetUtilization) > 0 {
		t := newTable("Category", "Budget", "Spent", "Used", "")
		for _, u := range s.BudgetUtilization {
			style := UsageStyle(u.Percent)
			t.Row(u.Category, money.Format(u.Budget), money.Format(u.Spent),
				style.Render(pct(u.Percent)), style.Render(UsageBar(u.Percent, usageBarWidth)))
		}
		sections = append(sections, BoldStyle.Render("Budgets")+
			SubtitleStyle.Render(fmt.Sprintf("  %s of %s (%s)", money.Format(s.TotalAmount), money.Format(s.TotalBudget), pct(s.TotalBudgetUtilization))),
			t.Render())
	}

	for _, o := range s.OverBudgetCategories {
		sections = append(sections, FormatWarning(fmt.Sprintf("%s is over budget by %s (%s)", o.Category, money.Format(o.Amount), pct(o.Percent))))
	}

	if cats := s.Categories(); len(cats) > 0 {
		t := newTable("Category", "Count", "Amount", "Share")
		for _, c := range cats {
			t.Row(c.Name, strconv.Itoa(c.Count), money.Format(c.Amount), pct(c.Share))
		}
		sections = append(sections, BoldStyle.Render("By category"), t.Render())
	}

	if methods := s.PaymentMethods(); len(methods) > 0 {
		t := newTable("Payment method", "Amount", "Share")
		for _, m := range methods {
			t.Row(m.Name, money.Format(m.Amount), pct(m.Share))
		}
		sections = append(sections, BoldStyle.Render("By payment method"), t.Render())
	}

	if s.TransactionCount == 0 {
		sections = append(sections, SubtleStyle.Render("No expenses recorded in this period."))
	}

	_, err := fmt.Fprintln(w, strings.Join(sections, "\n"))
	return err
}
