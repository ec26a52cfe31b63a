package report

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	foodID      int64 = 1
	transportID int64 = 2
	leisureID   int64 = 3
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func categories(foodBudget int64) []model.Category {
	return []model.Category{
		{ID: foodID, Name: "Food", Budget: decimal.NewFromInt(foodBudget), Color: "#FF6B6B"},
		{ID: transportID, Name: "Transport", Budget: decimal.Zero, Color: "#4ECDC4"},
		{ID: leisureID, Name: "Leisure", Budget: decimal.NewFromInt(100000), Color: "#98D8C8"},
	}
}

func expense(id, categoryID int64, name string, date time.Time, amount int64, method model.PaymentMethod) model.Expense {
	return model.Expense{
		ID:            id,
		Date:          date,
		CategoryID:    categoryID,
		Category:      model.CategoryRef{ID: categoryID, Name: name},
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: method,
	}
}

func january() period.Range {
	r, err := period.Resolve(period.Request{Kind: period.ThisMonth, Today: day(2024, 1, 31)})
	if err != nil {
		panic(err)
	}
	return r
}

func foodScenario() []model.Expense {
	return []model.Expense{
		expense(1, foodID, "Food", day(2024, 1, 5), 100000, model.PaymentCreditCard),
		expense(2, foodID, "Food", day(2024, 1, 10), 50000, model.PaymentCash),
		expense(3, foodID, "Food", day(2024, 1, 20), 200000, model.PaymentCreditCard),
	}
}

func TestComputeWithinBudget(t *testing.T) {
	s := Compute(Input{
		Period:     january(),
		Records:    foodScenario(),
		Categories: categories(500000),
	})

	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(350000)))
	assert.Equal(t, 3, s.TransactionCount)
	assert.Equal(t, "11290.32", s.DailyAverage.StringFixed(2))
	assert.Equal(t, "116666.67", s.AveragePerTransaction.StringFixed(2))

	require.Len(t, s.BudgetUtilization, 2, "only categories with a positive ceiling are tracked")
	food := s.BudgetUtilization[0]
	assert.Equal(t, "Food", food.Category)
	assert.InDelta(t, 70.0, food.Percent, 1e-9)
	assert.False(t, food.OverBudget)
	assert.Equal(t, 3, food.Count)

	leisure := s.BudgetUtilization[1]
	assert.Equal(t, "Leisure", leisure.Category)
	assert.InDelta(t, 0.0, leisure.Percent, 1e-9)

	assert.NotNil(t, s.OverBudgetCategories)
	assert.Empty(t, s.OverBudgetCategories)

	assert.True(t, s.TotalBudget.Equal(decimal.NewFromInt(600000)))
	assert.InDelta(t, 350000.0/600000.0*100, s.TotalBudgetUtilization, 1e-9)
}

func TestComputeOverBudget(t *testing.T) {
	records := append(foodScenario(), expense(4, foodID, "Food", day(2024, 1, 25), 200000, model.PaymentDebitCard))

	s := Compute(Input{
		Period:     january(),
		Records:    records,
		Categories: categories(500000),
	})

	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(550000)))
	require.Len(t, s.OverBudgetCategories, 1)
	over := s.OverBudgetCategories[0]
	assert.Equal(t, "Food", over.Category)
	assert.True(t, over.Amount.Equal(decimal.NewFromInt(50000)))
	assert.InDelta(t, 10.0, over.Percent, 1e-9)
	assert.InDelta(t, 110.0, s.BudgetUtilization[0].Percent, 1e-9)
}

func TestComputeEmptyRecordSet(t *testing.T) {
	s := Compute(Input{Period: january(), Categories: categories(0)})

	assert.True(t, s.TotalAmount.IsZero())
	assert.True(t, s.DailyAverage.IsZero())
	assert.True(t, s.AveragePerTransaction.IsZero())
	assert.Zero(t, s.TransactionCount)
	assert.Zero(t, s.ChangePercent)
	assert.Empty(t, s.CategoryBreakdown)
	assert.Empty(t, s.PaymentMethodBreakdown)
	assert.Empty(t, s.OverBudgetCategories)
	assert.Empty(t, s.DailyTotals)
	assert.Empty(t, s.MonthlyByCategory.Months)
	assert.Zero(t, s.TotalBudgetUtilization)
	require.Len(t, s.BudgetUtilization, 1, "Leisure keeps its ceiling")
	assert.Zero(t, s.BudgetUtilization[0].Percent)
}

func TestComputeNoCategories(t *testing.T) {
	s := Compute(Input{Period: january(), Records: foodScenario()})

	assert.Empty(t, s.BudgetUtilization)
	assert.Zero(t, s.TotalBudgetUtilization, "zero ceiling sum yields 0, not infinity")
}

func TestBreakdownsSumToTotal(t *testing.T) {
	records := []model.Expense{
		expense(1, foodID, "Food", day(2024, 1, 2), 12345, model.PaymentCash),
		expense(2, transportID, "Transport", day(2024, 1, 2), 1250, model.PaymentDebitCard),
		expense(3, leisureID, "Leisure", day(2024, 1, 9), 99999, model.PaymentBankTransfer),
		expense(4, foodID, "Food", day(2024, 1, 15), 1, model.PaymentOther),
		expense(5, transportID, "Transport", day(2024, 1, 30), 4500, model.PaymentCash),
	}
	records[1].Amount = decimal.RequireFromString("1250.55")

	s := Compute(Input{Period: january(), Records: records, Categories: categories(500000)})

	catSum := decimal.Zero
	for _, v := range s.CategoryBreakdown {
		catSum = catSum.Add(v)
	}
	methodSum := decimal.Zero
	for _, v := range s.PaymentMethodBreakdown {
		methodSum = methodSum.Add(v)
	}
	dailySum := decimal.Zero
	for _, d := range s.DailyTotals {
		dailySum = dailySum.Add(d.Amount)
	}

	assert.True(t, catSum.Equal(s.TotalAmount))
	assert.True(t, methodSum.Equal(s.TotalAmount))
	assert.True(t, dailySum.Equal(s.TotalAmount))
	assert.True(t, s.Fixed.Fixed.Add(s.Fixed.Variable).Equal(s.TotalAmount))

	assert.Len(t, s.CategoryBreakdown, 3, "only categories present in the records")
	assert.Len(t, s.PaymentMethodBreakdown, 4)
	assert.Len(t, s.DailyTotals, 4)
	assert.Equal(t, 2, s.DailyTotals[0].Count)
}

func TestComputeComparison(t *testing.T) {
	previous := []model.Expense{
		expense(10, foodID, "Food", day(2023, 12, 3), 200000, model.PaymentCash),
	}

	s := Compute(Input{Period: january(), Records: foodScenario(), Categories: categories(0), Previous: previous})
	assert.True(t, s.HasComparison)
	assert.True(t, s.PreviousTotal.Equal(decimal.NewFromInt(200000)))
	assert.InDelta(t, 75.0, s.ChangePercent, 1e-9)

	s = Compute(Input{Period: january(), Records: foodScenario(), Previous: []model.Expense{}})
	assert.True(t, s.HasComparison)
	assert.Zero(t, s.ChangePercent, "empty previous period yields 0")
}

func TestComputeIsDeterministic(t *testing.T) {
	in := Input{Period: january(), Records: foodScenario(), Categories: categories(500000)}
	a := Compute(in)
	b := Compute(in)

	assert.Equal(t, a.Categories(), b.Categories())
	assert.Equal(t, a.BudgetUtilization, b.BudgetUtilization)
	assert.Equal(t, a.DailyTotals, b.DailyTotals)
	assert.True(t, a.DailyAverage.Equal(b.DailyAverage))
}

func TestMonthlyPivotZeroFills(t *testing.T) {
	records := []model.Expense{
		expense(1, foodID, "Food", day(2024, 1, 5), 100, model.PaymentCash),
		expense(2, transportID, "Transport", day(2024, 2, 5), 50, model.PaymentCash),
		expense(3, foodID, "Food", day(2024, 2, 6), 25, model.PaymentCash),
	}
	r, err := period.NewRange(day(2024, 1, 1), day(2024, 2, 29))
	require.NoError(t, err)

	p := Compute(Input{Period: r, Records: records}).MonthlyByCategory
	assert.Equal(t, []string{"2024-01", "2024-02"}, p.Months)
	assert.Equal(t, []string{"Food", "Transport"}, p.Categories)
	assert.True(t, p.Amount("2024-01", "Transport").IsZero())
	assert.True(t, p.Amount("2024-02", "Food").Equal(decimal.NewFromInt(25)))
	assert.True(t, p.Amount("2023-12", "Food").IsZero())
}

func TestSortedBreakdowns(t *testing.T) {
	records := []model.Expense{
		expense(1, foodID, "Food", day(2024, 1, 5), 100, model.PaymentCash),
		expense(2, transportID, "Transport", day(2024, 1, 6), 300, model.PaymentCreditCard),
	}
	sub := model.SubcategoryRef{ID: 7, Name: "Taxi"}
	records[1].Subcategory = &sub

	s := Compute(Input{Period: january(), Records: records})

	cats := s.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "Transport", cats[0].Name)
	assert.InDelta(t, 75.0, cats[0].Share, 1e-9)
	assert.Equal(t, 1, cats[0].Count)

	methods := s.PaymentMethods()
	assert.Equal(t, "Credit Card", methods[0].Name)

	subs := s.Subcategories()
	require.Len(t, subs, 1)
	assert.Equal(t, "Transport / Taxi", subs[0].Name)
}

func TestFixedBreakdown(t *testing.T) {
	records := foodScenario()
	records[0].IsFixed = true

	s := Compute(Input{Period: january(), Records: records})
	assert.True(t, s.Fixed.Fixed.Equal(decimal.NewFromInt(100000)))
	assert.True(t, s.Fixed.Variable.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, 1, s.Fixed.FixedCount)
	assert.Equal(t, 2, s.Fixed.VariableCount)
}

func TestPercentHelpers(t *testing.T) {
	assert.Zero(t, Percent(decimal.NewFromInt(5), decimal.Zero))
	assert.InDelta(t, 50.0, Percent(decimal.NewFromInt(5), decimal.NewFromInt(10)), 1e-9)
	assert.Zero(t, ChangePercent(decimal.NewFromInt(5), decimal.Zero))
	assert.InDelta(t, -50.0, ChangePercent(decimal.NewFromInt(5), decimal.NewFromInt(10)), 1e-9)
}
