// Package report reduces a set of expense records into the summary metrics
// shown by every reporting surface. Nothing in this package touches storage
// or the clock; callers pass everything in.
package report

import (
	"sort"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input is one report request's worth of data, loaded once by the caller.
type Input struct {
	Period     period.Range
	Records    []model.Expense
	Categories []model.Category
	// Previous holds the records of the preceding period of equal length.
	// Nil means no comparison was requested and the change is reported as 0.
	Previous []model.Expense
}

// BudgetUsage is spend against one tracked category's ceiling.
type BudgetUsage struct {
	Spent      decimal.Decimal
	Budget     decimal.Decimal
	Category   string
	Color      string
	Percent    float64
	CategoryID int64
	OverBudget bool
	Count      int
}

// Overage describes a category whose spend exceeded its ceiling.
type Overage struct {
	Spent    decimal.Decimal
	Budget   decimal.Decimal
	Amount   decimal.Decimal
	Category string
	Percent  float64
}

// DailyTotal is the spend on one calendar date.
type DailyTotal struct {
	Date   time.Time
	Amount decimal.Decimal
	Count  int
}

// FixedBreakdown splits spend into fixed and variable costs.
type FixedBreakdown struct {
	Fixed         decimal.Decimal
	Variable      decimal.Decimal
	FixedCount    int
	VariableCount int
}

// MonthlyPivot is a month by category matrix, zero-filled.
type MonthlyPivot struct {
	// Cells maps month (YYYY-MM) to category name to amount.
	Cells      map[string]map[string]decimal.Decimal
	Months     []string
	Categories []string
}

// Amount returns the cell for month and category, zero when absent.
func (p MonthlyPivot) Amount(month, category string) decimal.Decimal {
	if row, ok := p.Cells[month]; ok {
		return row[category]
	}
	return decimal.Zero
}

// NamedAmount is one row of a breakdown, ordered for display.
type NamedAmount struct {
	Amount decimal.Decimal
	Name   string
	Share  float64
	Count  int
}

// Summary is the full set of metrics for one period.
type Summary struct {
	Period                 period.Range
	CategoryBreakdown      map[string]decimal.Decimal
	PaymentMethodBreakdown map[model.PaymentMethod]decimal.Decimal
	SubcategoryBreakdown   map[string]decimal.Decimal
	MonthlyByCategory      MonthlyPivot
	TotalAmount            decimal.Decimal
	DailyAverage           decimal.Decimal
	AveragePerTransaction  decimal.Decimal
	PreviousTotal          decimal.Decimal
	TotalBudget            decimal.Decimal
	Fixed                  FixedBreakdown
	categoryCounts         map[string]int
	BudgetUtilization      []BudgetUsage
	OverBudgetCategories   []Overage
	DailyTotals            []DailyTotal
	ChangePercent          float64
	TotalBudgetUtilization float64
	TransactionCount       int
	HasComparison          bool
}

// Compute reduces the input into a Summary. It is deterministic and never
// fails; an empty record set yields zero-valued metrics.
func Compute(in Input) Summary {
	s := Summary{
		Period:                 in.Period,
		CategoryBreakdown:      make(map[string]decimal.Decimal),
		PaymentMethodBreakdown: make(map[model.PaymentMethod]decimal.Decimal),
		SubcategoryBreakdown:   make(map[string]decimal.Decimal),
		categoryCounts:         make(map[string]int),
		BudgetUtilization:      []BudgetUsage{},
		OverBudgetCategories:   []Overage{},
		DailyTotals:            []DailyTotal{},
		TotalAmount:            decimal.Zero,
		DailyAverage:           decimal.Zero,
		AveragePerTransaction:  decimal.Zero,
		PreviousTotal:          decimal.Zero,
		TotalBudget:            decimal.Zero,
		Fixed:                  FixedBreakdown{Fixed: decimal.Zero, Variable: decimal.Zero},
	}

	spentByCategory := make(map[int64]decimal.Decimal)
	countByCategory := make(map[int64]int)
	daily := make(map[time.Time]*DailyTotal)

	for _, r := range in.Records {
		s.TotalAmount = s.TotalAmount.Add(r.Amount)
		s.TransactionCount++

		s.CategoryBreakdown[r.Category.Name] = s.CategoryBreakdown[r.Category.Name].Add(r.Amount)
		s.categoryCounts[r.Category.Name]++
		s.PaymentMethodBreakdown[r.PaymentMethod] = s.PaymentMethodBreakdown[r.PaymentMethod].Add(r.Amount)
		spentByCategory[r.CategoryID] = spentByCategory[r.CategoryID].Add(r.Amount)
		countByCategory[r.CategoryID]++

		if r.Subcategory != nil {
			key := r.Category.Name + " / " + r.Subcategory.Name
			s.SubcategoryBreakdown[key] = s.SubcategoryBreakdown[key].Add(r.Amount)
		}

		if r.IsFixed {
			s.Fixed.Fixed = s.Fixed.Fixed.Add(r.Amount)
			s.Fixed.FixedCount++
		} else {
			s.Fixed.Variable = s.Fixed.Variable.Add(r.Amount)
			s.Fixed.VariableCount++
		}

		date := model.DateOf(r.Date)
		dt, ok := daily[date]
		if !ok {
			dt = &DailyTotal{Date: date, Amount: decimal.Zero}
			daily[date] = dt
		}
		dt.Amount = dt.Amount.Add(r.Amount)
		dt.Count++
	}

	if s.TransactionCount > 0 {
		s.DailyAverage = s.TotalAmount.Div(decimal.NewFromInt(int64(in.Period.Days())))
		s.AveragePerTransaction = s.TotalAmount.Div(decimal.NewFromInt(int64(s.TransactionCount)))
	}

	if in.Previous != nil {
		s.HasComparison = true
		for _, r := range in.Previous {
			s.PreviousTotal = s.PreviousTotal.Add(r.Amount)
		}
		s.ChangePercent = ChangePercent(s.TotalAmount, s.PreviousTotal)
	}

	for _, dt := range daily {
		s.DailyTotals = append(s.DailyTotals, *dt)
	}
	sort.Slice(s.DailyTotals, func(i, j int) bool {
		return s.DailyTotals[i].Date.Before(s.DailyTotals[j].Date)
	})

	s.computeBudgets(in.Categories, spentByCategory, countByCategory)
	s.MonthlyByCategory = monthlyPivot(in.Records)

	return s
}

func (s *Summary) computeBudgets(categories []model.Category, spent map[int64]decimal.Decimal, counts map[int64]int) {
	cats := make([]model.Category, len(categories))
	copy(cats, categories)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })

	for _, c := range cats {
		if !c.Budget.IsPositive() {
			continue
		}
		s.TotalBudget = s.TotalBudget.Add(c.Budget)

		amount := spent[c.ID]
		usage := BudgetUsage{
			CategoryID: c.ID,
			Category:   c.Name,
			Color:      c.Color,
			Spent:      amount,
			Budget:     c.Budget,
			Percent:    Percent(amount, c.Budget),
			OverBudget: amount.GreaterThan(c.Budget),
			Count:      counts[c.ID],
		}
		s.BudgetUtilization = append(s.BudgetUtilization, usage)

		if usage.OverBudget {
			over := amount.Sub(c.Budget)
			s.OverBudgetCategories = append(s.OverBudgetCategories, Overage{
				Category: c.Name,
				Spent:    amount,
				Budget:   c.Budget,
				Amount:   over,
				Percent:  Percent(over, c.Budget),
			})
		}
	}

	s.TotalBudgetUtilization = Percent(s.TotalAmount, s.TotalBudget)
}

func monthlyPivot(records []model.Expense) MonthlyPivot {
	p := MonthlyPivot{Cells: make(map[string]map[string]decimal.Decimal)}
	catSet := make(map[string]bool)

	for _, r := range records {
		month := r.Date.Format("2006-01")
		row, ok := p.Cells[month]
		if !ok {
			row = make(map[string]decimal.Decimal)
			p.Cells[month] = row
			p.Months = append(p.Months, month)
		}
		row[r.Category.Name] = row[r.Category.Name].Add(r.Amount)
		catSet[r.Category.Name] = true
	}

	for name := range catSet {
		p.Categories = append(p.Categories, name)
	}
	sort.Strings(p.Months)
	sort.Strings(p.Categories)

	for _, month := range p.Months {
		for _, name := range p.Categories {
			if _, ok := p.Cells[month][name]; !ok {
				p.Cells[month][name] = decimal.Zero
			}
		}
	}
	return p
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

// ChangePercent returns the period-over-period change. A zero previous
// total yields 0 rather than an infinite change.
func ChangePercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64()
}

// Categories returns the category breakdown ordered by amount, largest first.
func (s Summary) Categories() []NamedAmount {
	out := make([]NamedAmount, 0, len(s.CategoryBreakdown))
	for name, amount := range s.CategoryBreakdown {
		out = append(out, NamedAmount{
			Name:   name,
			Amount: amount,
			Share:  Percent(amount, s.TotalAmount),
			Count:  s.categoryCounts[name],
		})
	}
	sortNamed(out)
	return out
}

// PaymentMethods returns the payment method breakdown ordered by amount.
func (s Summary) PaymentMethods() []NamedAmount {
	out := make([]NamedAmount, 0, len(s.PaymentMethodBreakdown))
	for method, amount := range s.PaymentMethodBreakdown {
		out = append(out, NamedAmount{
			Name:   method.Label(),
			Amount: amount,
			Share:  Percent(amount, s.TotalAmount),
		})
	}
	sortNamed(out)
	return out
}

// Subcategories returns the subcategory breakdown ordered by amount.
func (s Summary) Subcategories() []NamedAmount {
	out := make([]NamedAmount, 0, len(s.SubcategoryBreakdown))
	for name, amount := range s.SubcategoryBreakdown {
		out = append(out, NamedAmount{
			Name:   name,
			Amount: amount,
			Share:  Percent(amount, s.TotalAmount),
		})
	}
	sortNamed(out)
	return out
}

func sortNamed(rows []NamedAmount) {
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
}
