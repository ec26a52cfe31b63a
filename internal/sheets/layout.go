package sheets

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/shopspring/decimal"
)

// cellRange is a rectangle one column wide, end row exclusive.
type cellRange struct {
	startRow int64
	endRow   int64
	column   int64
}

// layout is the grid written to the sheet plus the rows and cells that
// get formatted.
type layout struct {
	values       [][]any
	headerRows   []int64
	amountRanges []cellRange
}

func (l *layout) row(cells ...any) int64 {
	l.values = append(l.values, cells)
	return int64(len(l.values) - 1)
}

func (l *layout) header(cells ...any) {
	l.headerRows = append(l.headerRows, l.row(cells...))
}

func (l *layout) amountColumn(column int64, start, end int64) {
	l.amountRanges = append(l.amountRanges, cellRange{startRow: start, endRow: end, column: column})
}

func (l *layout) next() int64 {
	return int64(len(l.values))
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// buildLayout lays out the summary block and the expense table.
func buildLayout(records []model.Expense, s report.Summary) layout {
	var l layout

	l.row("Expense Report", s.Period.Label())
	l.row()

	l.header("Summary")
	start := l.next()
	l.row("Total Spent", amount(s.TotalAmount))
	l.row("Daily Average", amount(s.DailyAverage))
	l.row("Average per Transaction", amount(s.AveragePerTransaction))
	l.row("Previous Period", amount(s.PreviousTotal))
	l.row("Total Budget", amount(s.TotalBudget))
	l.amountColumn(1, start, l.next())
	l.row("Transactions", s.TransactionCount)
	if s.HasComparison {
		l.row("Change vs Previous", percent(s.ChangePercent))
	}
	if !s.TotalBudget.IsZero() {
		l.row("Budget Used", percent(s.TotalBudgetUtilization))
	}

	if len(s.BudgetUtilization) > 0 {
		l.row()
		l.header("Budgets")
		l.header("Category", "Budget", "Spent", "Used", "Over")
		start = l.next()
		for _, u := range s.BudgetUtilization {
			over := ""
			if u.OverBudget {
				over = "yes"
			}
			l.row(u.Category, amount(u.Budget), amount(u.Spent), percent(u.Percent), over)
		}
		l.amountColumn(1, start, l.next())
		l.amountColumn(2, start, l.next())
	}

	l.row()
	l.header("Categories")
	l.header("Category", "Count", "Amount", "Share")
	start = l.next()
	for _, c := range s.Categories() {
		l.row(c.Name, c.Count, amount(c.Amount), percent(c.Share))
	}
	l.amountColumn(2, start, l.next())

	l.row()
	l.header("Expenses")
	header := make([]any, len(export.Columns))
	for i, c := range export.Columns {
		header[i] = c
	}
	l.header(header...)
	start = l.next()
	for _, r := range export.ToFlatTable(records) {
		l.row(r.ID, r.Date.Format(model.DateLayout), r.Category, r.Subcategory, amount(r.Amount), r.Description, r.PaymentMethod)
	}
	l.amountColumn(amountColumn, start, l.next())

	return l
}
