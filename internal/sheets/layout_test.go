package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func sampleReport() ([]model.Expense, report.Summary) {
	food := model.Category{ID: 1, Name: "Food", Budget: decimal.NewFromInt(100000)}
	transport := model.Category{ID: 2, Name: "Transport"}
	records := []model.Expense{
		{
			ID: 2, Date: day(5), CategoryID: 1, Amount: decimal.NewFromInt(120000),
			Category:      model.CategoryRef{ID: 1, Name: "Food", Budget: food.Budget},
			PaymentMethod: model.PaymentCash, Description: "groceries",
		},
		{
			ID: 1, Date: day(2), CategoryID: 2, Amount: decimal.RequireFromString("1450.5"),
			Category:      model.CategoryRef{ID: 2, Name: "Transport"},
			PaymentMethod: model.PaymentCreditCard,
		},
	}
	summary := report.Compute(report.Input{
		Period:     period.Range{Start: day(1), End: day(31)},
		Records:    records,
		Categories: []model.Category{food, transport},
	})
	return records, summary
}

func rowStarting(t *testing.T, l layout, first any) (int, []any) {
	t.Helper()
	for i, row := range l.values {
		if len(row) > 0 && row[0] == first {
			return i, row
		}
	}
	t.Fatalf("no row starting with %v", first)
	return -1, nil
}

func TestBuildLayoutSummaryBlock(t *testing.T) {
	records, summary := sampleReport()
	l := buildLayout(records, summary)

	assert.Equal(t, []any{"Expense Report", "2024-03-01 ~ 2024-03-31"}, l.values[0])

	_, total := rowStarting(t, l, "Total Spent")
	assert.Equal(t, 121450.5, total[1])

	_, count := rowStarting(t, l, "Transactions")
	assert.Equal(t, 2, count[1])

	_, used := rowStarting(t, l, "Budget Used")
	assert.Equal(t, "121.5%", used[1])

	for _, row := range l.values {
		if len(row) > 0 {
			assert.NotEqual(t, "Change vs Previous", row[0], "no comparison was requested")
		}
	}
}

func TestBuildLayoutBudgetsAndCategories(t *testing.T) {
	records, summary := sampleReport()
	l := buildLayout(records, summary)

	budgetsAt, _ := rowStarting(t, l, "Budgets")
	require.Equal(t, []any{"Food", 100000.0, 120000.0, "120.0%", "yes"}, l.values[budgetsAt+2])

	categoriesAt, _ := rowStarting(t, l, "Categories")
	assert.Equal(t, []any{"Food", 1, 120000.0, "98.8%"}, l.values[categoriesAt+2])
	assert.Equal(t, "Transport", l.values[categoriesAt+3][0])
}

func TestBuildLayoutExpenseTable(t *testing.T) {
	records, summary := sampleReport()
	l := buildLayout(records, summary)

	tableAt, _ := rowStarting(t, l, "Expenses")
	header := l.values[tableAt+1]
	require.Len(t, header, len(export.Columns))
	assert.Equal(t, "Payment Method", header[6])

	rows := l.values[tableAt+2:]
	require.Len(t, rows, 2)
	assert.Equal(t, []any{int64(2), "2024-03-05", "Food", "", 120000.0, "groceries", "Cash"}, rows[0])
	assert.Equal(t, 1450.5, rows[1][amountColumn])

	assert.Contains(t, l.headerRows, int64(tableAt+1))
	last := l.amountRanges[len(l.amountRanges)-1]
	assert.Equal(t, cellRange{startRow: int64(tableAt + 2), endRow: int64(len(l.values)), column: amountColumn}, last)
}

func TestBuildLayoutEmptyPeriod(t *testing.T) {
	summary := report.Compute(report.Input{Period: period.Range{Start: day(1), End: day(1)}})
	l := buildLayout(nil, summary)

	for _, row := range l.values {
		if len(row) > 0 {
			assert.NotEqual(t, "Budgets", row[0])
			assert.NotEqual(t, "Budget Used", row[0])
		}
	}
	assert.Equal(t, []any{"ID", "Date", "Category", "Subcategory", "Amount", "Description", "Payment Method"}, l.values[len(l.values)-1])

	requests := formattingRequests(7, l, "#,##0")
	for _, r := range requests {
		if r.RepeatCell != nil && r.RepeatCell.Cell.UserEnteredFormat.NumberFormat != nil {
			assert.Greater(t, r.RepeatCell.Range.EndRowIndex, r.RepeatCell.Range.StartRowIndex)
		}
	}
}

func TestBatches(t *testing.T) {
	values := make([][]any, 5)
	for i := range values {
		values[i] = []any{i}
	}

	got := batches(values, 2)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].start)
	assert.Equal(t, 4, got[2].start)
	assert.Len(t, got[2].rows, 1)

	assert.Len(t, batches(values, 0), 1)
	assert.Empty(t, batches(nil, 10))
}
